package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	// MeasurementFeedback holds every value pushed to a bridge join.
	MeasurementFeedback = "join_feedback"

	// MeasurementOnline holds endpoint online transitions.
	MeasurementOnline = "device_online"
)

// FeedbackPoint is one value pushed from a device feedback to a bridge join.
type FeedbackPoint struct {
	Device   string
	Feedback string
	Bridge   string

	// Signal is the join's signal type: digital, analog or serial.
	Signal string
	Join   uint32

	// Value is a bool, uint16 or string.
	Value any
	Time  time.Time
}

// WriteFeedback records a pushed feedback value.
//
// Tags are device, feedback, bridge and signal; the join number and the
// value are fields. Bools are stored as bools, analog values as integers
// and serial values as strings. The write is non-blocking.
//
// Example:
//
//	client.WriteFeedback(influxdb.FeedbackPoint{
//	    Device: "partition-1", Feedback: "Sensitivity", Bridge: "panel",
//	    Signal: "analog", Join: 1, Value: uint16(6),
//	})
func (c *Client) WriteFeedback(p FeedbackPoint) {
	if !c.IsConnected() {
		return
	}

	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		c.measurementName(),
		map[string]string{
			"device":   p.Device,
			"feedback": p.Feedback,
			"bridge":   p.Bridge,
			"signal":   p.Signal,
		},
		map[string]interface{}{
			"join":  int64(p.Join),
			"value": fieldValue(p.Value),
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WriteOnline records an endpoint coming online or going offline.
func (c *Client) WriteOnline(device string, online bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementOnline,
		map[string]string{"device": device},
		map[string]interface{}{"online": online},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//   - timestamp: Time of the point; zero means now
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}

func (c *Client) measurementName() string {
	if c.measurement == "" {
		return MeasurementFeedback
	}
	return c.measurement
}

// fieldValue widens join values to the types line protocol stores.
func fieldValue(v any) any {
	switch x := v.(type) {
	case uint16:
		return int64(x)
	case int:
		return int64(x)
	default:
		return v
	}
}

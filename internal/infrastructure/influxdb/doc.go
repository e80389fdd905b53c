// Package influxdb records bridge traffic in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks.
//
// # Purpose
//
// Every value the linker pushes to a bridge join is written as a
// join_feedback point tagged with device, feedback, bridge and signal.
// Endpoint online transitions are written as device_online points.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "graylogic",
//	    Bucket:  "joins",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteFeedback(influxdb.FeedbackPoint{
//	    Device: "partition-1", Feedback: "Enable", Bridge: "panel",
//	    Signal: "digital", Join: 2, Value: true,
//	})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes never block and never return errors; batch failures are delivered
// to the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb

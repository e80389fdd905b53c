package modules

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// TypeC2nRths is the descriptor type of the C2N-RTHS sensor.
const TypeC2nRths = "c2nrths"

// RTHS feedback and action names.
const (
	FeedbackTemperature    = "Temperature"
	FeedbackTemperatureInC = "TemperatureInC"
	FeedbackHumidity       = "Humidity"

	ActionTemperatureFormat = "TemperatureFormat"
)

// Rths adapts a C2N-RTHS temperature and humidity sensor.
//
// Temperature is reported in tenths of a degree in the sensor's current
// format; TemperatureInC says which. The sensor only reports on change, so
// Run re-fires every feedback on a timer.
type Rths struct {
	*base
	pollDelay    time.Duration
	pollInterval time.Duration
}

func newRths(desc device.Descriptor, opts Options) (Module, error) {
	r := &Rths{
		base:         newBase(desc, models.C2nRths, opts),
		pollDelay:    opts.PollDelay,
		pollInterval: opts.PollInterval,
	}

	r.fbs.Add(feedback.NewInt(FeedbackTemperature, r.readInt(models.RthsTemperature)))
	r.fbs.Add(feedback.NewBool(FeedbackTemperatureInC, r.readBool(models.RthsTemperatureFormat)))
	r.fbs.Add(feedback.NewInt(FeedbackHumidity, r.readInt(models.RthsHumidity)))

	r.actions = bridge.Actions{
		ActionTemperatureFormat: bridge.BoolAction(func(v bool) { _ = r.SetTemperatureFormat(v) }),
	}

	r.joins = joinmap.New(append(standardJoins(),
		digitalJoin(ActionTemperatureFormat, 2, joinmap.FromBridge, "Set format, high for Celsius"),
		digitalJoin(FeedbackTemperatureInC, 3, joinmap.ToBridge, "Temperature is Celsius"),
		analogJoin(FeedbackTemperature, 2, joinmap.ToBridge, "Temperature in tenths of a degree"),
		analogJoin(FeedbackHumidity, 3, joinmap.ToBridge, "Relative humidity"),
	)...)
	return r, nil
}

// PreActivate binds the sensor.
func (r *Rths) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	events.on(models.RthsTemperatureEventID, FeedbackTemperature, FeedbackTemperatureInC)
	events.on(models.RthsHumidityEventID, FeedbackHumidity)
	return r.resolve(env, binding.Request{}, events)
}

// SetTemperatureFormat selects Celsius (true) or Fahrenheit.
func (r *Rths) SetTemperatureFormat(celsius bool) error {
	return r.setBool(models.RthsTemperatureFormat, celsius)
}

// Run re-fires every feedback after the poll delay and then on every poll
// interval until ctx is cancelled. Polls are skipped while unbound or
// offline.
func (r *Rths) Run(ctx context.Context) {
	delay := time.NewTimer(r.pollDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	r.poll()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Rths) poll() {
	if !r.isOnline() {
		r.logger.Debug("sensor poll skipped, offline", "device", r.Key())
		return
	}
	r.logger.Debug("polling sensor", "device", r.Key())
	r.Refresh()
}

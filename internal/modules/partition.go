package modules

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// TypeGlsPartCn is the descriptor type of the GLS partition sensor.
const TypeGlsPartCn = "glspartcn"

// Partition sensor feedback and action names.
const (
	FeedbackEnable             = "Enable"
	FeedbackPartitionSensed    = "PartitionSensed"
	FeedbackPartitionNotSensed = "PartitionNotSensed"
	FeedbackSensitivity        = "Sensitivity"

	ActionIncreaseSensitivity = "IncreaseSensitivity"
	ActionDecreaseSensitivity = "DecreaseSensitivity"
)

// PartitionProperties configures a partition sensor. Nil fields leave the
// sensor's own setting alone.
type PartitionProperties struct {
	Sensitivity  *int  `yaml:"sensitivity"`
	EnableSensor *bool `yaml:"enableSensor"`
}

// PartitionSensor adapts a GLS-PART-CN cresnet partition sensor.
//
// In test mode the feedbacks report test values set through the SetTest*
// methods instead of hardware reads.
type PartitionSensor struct {
	*base
	props PartitionProperties

	mu              sync.RWMutex
	testMode        bool
	testEnable      bool
	testSensed      bool
	testSensitivity int
}

func newPartitionSensor(desc device.Descriptor, opts Options) (Module, error) {
	p := &PartitionSensor{base: newBase(desc, models.GlsPartCn, opts)}
	if err := desc.DecodeProperties(&p.props); err != nil {
		return nil, err
	}

	p.fbs.Add(feedback.NewBool(FeedbackEnable, p.enabled))
	p.fbs.Add(feedback.NewBool(FeedbackPartitionSensed, p.PartitionPresent))
	p.fbs.Add(feedback.NewBool(FeedbackPartitionNotSensed, p.partitionNotSensed))
	p.fbs.Add(feedback.NewInt(FeedbackSensitivity, p.sensitivity))

	p.actions = bridge.Actions{
		FeedbackEnable:            bridge.BoolAction(func(v bool) { _ = p.SetEnable(v) }),
		ActionIncreaseSensitivity: bridge.PressAction(func() { _ = p.IncreaseSensitivity() }),
		ActionDecreaseSensitivity: bridge.PressAction(func() { _ = p.DecreaseSensitivity() }),
		FeedbackSensitivity:       bridge.IntAction(func(v int) { _ = p.SetSensitivity(v) }),
	}

	p.joins = joinmap.New(append(standardJoins(),
		digitalJoin(FeedbackEnable, 2, joinmap.Both, "Sensor enable"),
		digitalJoin(FeedbackPartitionSensed, 3, joinmap.ToBridge, "Partition sensed"),
		digitalJoin(FeedbackPartitionNotSensed, 4, joinmap.ToBridge, "Partition not sensed"),
		digitalJoin(ActionIncreaseSensitivity, 6, joinmap.FromBridge, "Increase sensitivity"),
		digitalJoin(ActionDecreaseSensitivity, 7, joinmap.FromBridge, "Decrease sensitivity"),
		analogJoin(FeedbackSensitivity, 2, joinmap.Both, "Sensitivity"),
	)...)
	return p, nil
}

// PreActivate binds the sensor and maps its events.
func (p *PartitionSensor) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	events.on(models.GlsEnableEventID, FeedbackEnable)
	events.on(models.GlsPartitionSensedEventID, FeedbackPartitionSensed)
	events.on(models.GlsPartitionNotSensedEventID, FeedbackPartitionNotSensed)
	events.on(models.GlsSensitivityEventID, FeedbackSensitivity)
	return p.resolve(env, binding.Request{}, events)
}

// PostActivate applies the configured settings now and whenever the
// sensor comes back online.
func (p *PartitionSensor) PostActivate(_ context.Context, _ lifecycle.Env) error {
	ep := p.Endpoint()
	if ep == nil {
		return nil
	}
	lifecycle.WhenOnline(ep, p.applySettings)
	return nil
}

func (p *PartitionSensor) applySettings() {
	if p.props.Sensitivity != nil {
		p.logger.Debug("applying configured sensitivity", "device", p.Key(), "sensitivity", *p.props.Sensitivity)
		_ = p.SetSensitivity(*p.props.Sensitivity)
	}
	if p.props.EnableSensor != nil {
		p.logger.Debug("applying configured enable", "device", p.Key(), "enable", *p.props.EnableSensor)
		_ = p.SetEnable(*p.props.EnableSensor)
	} else {
		p.logger.Debug("no enableSensor configured, sensor stays as it is", "device", p.Key())
	}
}

// PartitionPresent reports whether the partition is sensed.
func (p *PartitionSensor) PartitionPresent() bool {
	p.mu.RLock()
	test, v := p.testMode, p.testSensed
	p.mu.RUnlock()
	if test {
		return v
	}
	return p.readBool(models.GlsPartitionSensed)()
}

func (p *PartitionSensor) partitionNotSensed() bool {
	p.mu.RLock()
	test, v := p.testMode, p.testSensed
	p.mu.RUnlock()
	if test {
		return !v
	}
	return p.readBool(models.GlsPartitionNotSensed)()
}

func (p *PartitionSensor) enabled() bool {
	p.mu.RLock()
	test, v := p.testMode, p.testEnable
	p.mu.RUnlock()
	if test {
		return v
	}
	return p.readBool(models.GlsEnable)()
}

func (p *PartitionSensor) sensitivity() int {
	p.mu.RLock()
	test, v := p.testMode, p.testSensitivity
	p.mu.RUnlock()
	if test {
		return v
	}
	return p.readInt(models.GlsSensitivity)()
}

// SetEnable turns the sensor on or off.
func (p *PartitionSensor) SetEnable(v bool) error { return p.setBool(models.GlsEnable, v) }

// SetSensitivity sets the sensitivity step.
func (p *PartitionSensor) SetSensitivity(v int) error { return p.setInt(models.GlsSensitivity, v) }

// IncreaseSensitivity steps the sensitivity up by one.
func (p *PartitionSensor) IncreaseSensitivity() error {
	return p.invoke(models.GlsIncreaseSensitivity)
}

// DecreaseSensitivity steps the sensitivity down by one.
func (p *PartitionSensor) DecreaseSensitivity() error {
	return p.invoke(models.GlsDecreaseSensitivity)
}

// SetTestMode switches test mode on or off and refreshes every feedback.
func (p *PartitionSensor) SetTestMode(on bool) {
	p.mu.Lock()
	p.testMode = on
	p.mu.Unlock()
	p.logger.Info("partition sensor test mode", "device", p.Key(), "test_mode", on)
	p.Refresh()
}

// InTestMode reports whether test mode is on.
func (p *PartitionSensor) InTestMode() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.testMode
}

// SetTestEnable sets the reported enable state in test mode.
func (p *PartitionSensor) SetTestEnable(v bool) error {
	if err := p.setTest(func() { p.testEnable = v }); err != nil {
		return err
	}
	return p.fbs.Fire(FeedbackEnable)
}

// SetTestPartitionSensed sets the reported partition state in test mode.
func (p *PartitionSensor) SetTestPartitionSensed(v bool) error {
	if err := p.setTest(func() { p.testSensed = v }); err != nil {
		return err
	}
	return p.fbs.Fire(FeedbackPartitionSensed, FeedbackPartitionNotSensed)
}

// SetTestSensitivity sets the reported sensitivity in test mode.
func (p *PartitionSensor) SetTestSensitivity(v int) error {
	if err := p.setTest(func() { p.testSensitivity = v }); err != nil {
		return err
	}
	return p.fbs.Fire(FeedbackSensitivity)
}

func (p *PartitionSensor) setTest(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.testMode {
		p.logger.Debug("test value ignored outside test mode", "device", p.Key())
		return ErrNotInTestMode
	}
	fn()
	return nil
}

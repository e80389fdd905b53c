package modules

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// IO module descriptor types.
const (
	TypeC2nIo         = "c2nio"
	TypeDinIo8        = "dinio8"
	TypeDin8Sw8       = "din8sw8"
	TypeC3Ry16        = "c3ry16"
	TypeCenIoCom102   = "ceniocom102"
	TypeCenIoDigIn104 = "ceniodigin104"
)

// Versiport adapts a versiport IO module. Each port reports a digital-in
// and an analog-in value.
type Versiport struct {
	*base
	ports int
}

func newVersiport(desc device.Descriptor, opts Options) (Module, error) {
	model, ports := models.C2nIo, models.C2nIoPorts
	if desc.Type == TypeDinIo8 {
		model, ports = models.DinIo8, models.DinIo8Ports
	}

	v := &Versiport{base: newBase(desc, model, opts), ports: ports}
	entries := standardJoins()
	for n := 1; n <= ports; n++ {
		din := models.Indexed(models.VersiportDigitalIn, n)
		ain := models.Indexed(models.VersiportAnalogIn, n)
		v.fbs.Add(feedback.NewBool(din, v.readBool(din)))
		v.fbs.Add(feedback.NewInt(ain, v.readInt(ain)))
		entries = append(entries,
			digitalJoin(din, uint32(n+1), joinmap.ToBridge, fmt.Sprintf("Port %d digital in", n)), //nolint:gosec // port count
			analogJoin(ain, uint32(n), joinmap.ToBridge, fmt.Sprintf("Port %d analog in", n)),     //nolint:gosec // port count
		)
	}
	v.joins = joinmap.New(entries...)
	return v, nil
}

// PreActivate binds the module.
func (v *Versiport) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	for n := 1; n <= v.ports; n++ {
		events.onIndex(models.VersiportDigitalInEventID, n, models.Indexed(models.VersiportDigitalIn, n))
		events.onIndex(models.VersiportAnalogInEventID, n, models.Indexed(models.VersiportAnalogIn, n))
	}
	return v.resolve(env, binding.Request{}, events)
}

// Ports returns the number of versiports.
func (v *Versiport) Ports() int { return v.ports }

// switchBank is a set of numbered writable bool outputs: loads on a
// DIN-8SW8, relays on a C3RY16.
type switchBank struct {
	*base
	point   string
	count   int
	eventID hardware.EventID
}

func newSwitchBank(desc device.Descriptor, model, point string, count int, ev hardware.EventID, opts Options) *switchBank {
	s := &switchBank{base: newBase(desc, model, opts), point: point, count: count, eventID: ev}
	entries := standardJoins()
	for n := 1; n <= count; n++ {
		name := models.Indexed(point, n)
		s.fbs.Add(feedback.NewBool(name, s.readBool(name)))
		s.actions[name] = bridge.BoolAction(func(on bool) { _ = s.setBool(name, on) })
		entries = append(entries, digitalJoin(name, uint32(n+1), joinmap.Both, fmt.Sprintf("%s %d", point, n))) //nolint:gosec // output count
	}
	s.joins = joinmap.New(entries...)
	return s
}

// PreActivate binds the module.
func (s *switchBank) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	for n := 1; n <= s.count; n++ {
		events.onIndex(s.eventID, n, models.Indexed(s.point, n))
	}
	return s.resolve(env, binding.Request{}, events)
}

// Set switches output n (1-based) on or off.
func (s *switchBank) Set(n int, on bool) error {
	if n < 1 || n > s.count {
		return fmt.Errorf("%w: %s %d of %d", ErrInvalidProperties, s.point, n, s.count)
	}
	return s.setBool(models.Indexed(s.point, n), on)
}

// State reads output n (1-based).
func (s *switchBank) State(n int) bool {
	return s.readBool(models.Indexed(s.point, n))()
}

// SwitchedLoads adapts a DIN-8SW8 load controller.
type SwitchedLoads struct {
	*switchBank
}

func newSwitchedLoads(desc device.Descriptor, opts Options) (Module, error) {
	return &SwitchedLoads{newSwitchBank(desc, models.Din8Sw8, models.Din8Sw8Load, models.Din8Sw8Loads, models.Din8Sw8LoadEventID, opts)}, nil
}

// RelayCard adapts a C3RY16 relay card in a card cage slot.
type RelayCard struct {
	*switchBank
}

func newRelayCard(desc device.Descriptor, opts Options) (Module, error) {
	return &RelayCard{newSwitchBank(desc, models.C3Ry16, models.C3Ry16Relay, models.C3Ry16Relays, models.C3Ry16RelayEventID, opts)}, nil
}

// Com port names.
const (
	FeedbackCom1 = "Com1"
	FeedbackCom2 = "Com2"
)

// ComPorts adapts a CEN-IO-COM-102. Received text is a serial feedback per
// port; the same-named action transmits.
type ComPorts struct {
	*base
}

func newComPorts(desc device.Descriptor, opts Options) (Module, error) {
	c := &ComPorts{base: newBase(desc, models.CenIoCom102, opts)}
	for n := 1; n <= models.CenIoComPorts; n++ {
		name := models.Indexed("Com", n)
		c.fbs.Add(feedback.NewString(name, c.readString(models.ComPoint(n, models.ComRx))))
		c.actions[name] = bridge.StringAction(func(s string) { _ = c.Transmit(n, s) })
	}
	c.joins = joinmap.New(
		digitalJoin(FeedbackIsOnline, 1, joinmap.ToBridge, "Device online"),
		serialJoin(FeedbackCom1, 1, joinmap.Both, "COM 1 receive and transmit"),
		serialJoin(FeedbackCom2, 3, joinmap.Both, "COM 2 receive and transmit"),
	)
	return c, nil
}

// PreActivate binds the module.
func (c *ComPorts) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	for n := 1; n <= models.CenIoComPorts; n++ {
		events.onIndex(models.ComRxEventID, n, models.Indexed("Com", n))
	}
	return c.resolve(env, binding.Request{}, events)
}

// Transmit sends s out of port n (1-based).
func (c *ComPorts) Transmit(n int, s string) error {
	if n < 1 || n > models.CenIoComPorts {
		return fmt.Errorf("%w: com port %d", ErrInvalidProperties, n)
	}
	return c.setString(models.ComPoint(n, models.ComTx), s)
}

// DigitalInputs adapts a CEN-IO-DIGIN-104.
type DigitalInputs struct {
	*base
}

func newDigitalInputs(desc device.Descriptor, opts Options) (Module, error) {
	if desc.Control.IPID == nil || *desc.Control.IPID == 0 {
		return nil, fmt.Errorf("%w: %s needs a non-zero ip_id", ErrInvalidProperties, desc.Key)
	}

	d := &DigitalInputs{base: newBase(desc, models.CenIoDigIn104, opts)}
	entries := standardJoins()
	for n := 1; n <= models.CenIoDigIn104Ins; n++ {
		name := models.Indexed(models.DigInInput, n)
		d.fbs.Add(feedback.NewBool(name, d.readBool(name)))
		entries = append(entries, digitalJoin(name, uint32(n+1), joinmap.ToBridge, fmt.Sprintf("Input %d", n))) //nolint:gosec // input count
	}
	d.joins = joinmap.New(entries...)
	return d, nil
}

// PreActivate binds the module.
func (d *DigitalInputs) PreActivate(_ context.Context, env lifecycle.Env) error {
	events := eventMap{}
	for n := 1; n <= models.CenIoDigIn104Ins; n++ {
		events.onIndex(models.DigInInputEventID, n, models.Indexed(models.DigInInput, n))
	}
	return d.resolve(env, binding.Request{}, events)
}

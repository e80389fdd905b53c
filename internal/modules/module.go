package modules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// Logger defines the logging interface used by adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FeedbackIsOnline is the key of the online feedback every module has.
const FeedbackIsOnline = "IsOnline"

// Default poll timing for modules that re-read their sensors.
const (
	DefaultPollDelay    = 30 * time.Second
	DefaultPollInterval = 5 * time.Minute
)

// Options are shared by every adapter a catalogue builds.
type Options struct {
	// Logger is optional structured logger.
	Logger Logger

	// PollDelay and PollInterval time sensor polling. Zero uses the defaults.
	PollDelay    time.Duration
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
	if o.PollDelay <= 0 {
		o.PollDelay = DefaultPollDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Module is a device built from a descriptor by an adapter.
type Module interface {
	lifecycle.Device
	bridge.Linkable

	// Type is the descriptor type the module was built for.
	Type() string

	// Model is the hardware model the module binds.
	Model() string

	Descriptor() device.Descriptor

	// Endpoint returns the bound endpoint, or nil before binding or after
	// a resolution failure.
	Endpoint() hardware.Endpoint

	// Refresh fires every feedback.
	Refresh()
}

// Runner is implemented by modules with background work. Run blocks until
// ctx is cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// eventMap lists, per hardware event, the feedback keys it invalidates.
type eventMap map[hardware.Event][]string

// on adds keys for an event on a singular point.
func (m eventMap) on(id hardware.EventID, keys ...string) {
	ev := hardware.Event{ID: id}
	m[ev] = append(m[ev], keys...)
}

// onIndex adds keys for one instance of a repeated point.
func (m eventMap) onIndex(id hardware.EventID, index int, keys ...string) {
	ev := hardware.Event{ID: id, Index: uint32(index)} //nolint:gosec // small port counts
	m[ev] = append(m[ev], keys...)
}

// base carries what every adapter shares: the descriptor, the bound
// endpoint, feedbacks, actions and the default join map.
type base struct {
	desc   device.Descriptor
	model  string
	logger Logger

	fbs     *feedback.Collection
	actions bridge.Actions
	joins   joinmap.Map

	mu     sync.RWMutex
	ep     hardware.Endpoint
	events eventMap
}

func newBase(desc device.Descriptor, model string, opts Options) *base {
	b := &base{
		desc:    desc,
		model:   model,
		logger:  opts.Logger,
		fbs:     feedback.NewCollection(),
		actions: bridge.Actions{},
	}
	b.fbs.Add(feedback.NewBool(FeedbackIsOnline, b.isOnline))
	return b
}

// Key returns the device key.
func (b *base) Key() string { return b.desc.Key }

// Name returns the display name, falling back to the key.
func (b *base) Name() string {
	if b.desc.Name == "" {
		return b.desc.Key
	}
	return b.desc.Name
}

// Type returns the descriptor type.
func (b *base) Type() string { return b.desc.Type }

// Model returns the hardware model.
func (b *base) Model() string { return b.model }

// Descriptor returns the descriptor the module was built from.
func (b *base) Descriptor() device.Descriptor { return b.desc }

// Feedbacks returns the module's feedbacks.
func (b *base) Feedbacks() *feedback.Collection { return b.fbs }

// Actions returns the module's bridgeable actions.
func (b *base) Actions() bridge.Actions { return b.actions }

// JoinMap returns the default join map.
func (b *base) JoinMap() joinmap.Map { return b.joins }

// Refresh fires every feedback.
func (b *base) Refresh() { b.fbs.FireAll() }

// Endpoint returns the bound endpoint or nil.
func (b *base) Endpoint() hardware.Endpoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ep
}

// OnlineSignal returns the endpoint's online signal, or nil when unbound.
func (b *base) OnlineSignal() hardware.HasOnlineSignal {
	ep := b.Endpoint()
	if ep == nil {
		return nil
	}
	return ep
}

// DependsOn names the parent device, if any.
func (b *base) DependsOn() []string {
	if b.desc.Control.IsRoot() {
		return nil
	}
	return []string{b.desc.Control.ParentKey}
}

// EventMap returns a copy of the event → feedback key table.
func (b *base) EventMap() map[hardware.Event][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[hardware.Event][]string, len(b.events))
	for ev, keys := range b.events {
		out[ev] = append([]string{}, keys...)
	}
	return out
}

// resolve binds the descriptor's own addressing.
func (b *base) resolve(env lifecycle.Env, req binding.Request, events eventMap) error {
	return b.resolveAddress(env, b.desc.Control, req, events)
}

// resolveAddress binds using addr instead of the descriptor's control block.
func (b *base) resolveAddress(env lifecycle.Env, addr device.Addressing, req binding.Request, events eventMap) error {
	if req.Model == "" {
		req.Model = b.model
	}
	ep, err := env.Resolver.ResolveAddress(b.desc.Key, addr, req)
	if err != nil {
		return err
	}
	b.bind(ep, events)
	return nil
}

// bind attaches ep and subscribes to its events and online changes.
// Online transitions are resynced by the linker; going offline only needs
// the online feedback pushed.
func (b *base) bind(ep hardware.Endpoint, events eventMap) {
	if events == nil {
		events = eventMap{}
	}

	b.mu.Lock()
	b.ep = ep
	b.events = events
	b.mu.Unlock()

	ep.OnEvent(b.handleEvent)
	ep.OnOnlineChange(func(online bool) {
		b.logger.Info("device online state changed", "device", b.desc.Key, "online", online)
		if !online {
			_ = b.fbs.Fire(FeedbackIsOnline)
		}
	})
}

func (b *base) handleEvent(ev hardware.Event) {
	b.mu.RLock()
	keys := b.events[ev]
	b.mu.RUnlock()

	if len(keys) == 0 {
		b.logger.Debug("unhandled hardware event", "device", b.desc.Key, "event", ev.String())
		return
	}
	if err := b.fbs.Fire(keys...); err != nil {
		b.logger.Warn("firing feedbacks for event", "device", b.desc.Key, "event", ev.String(), "error", err)
	}
}

func (b *base) isOnline() bool {
	ep := b.Endpoint()
	return ep != nil && ep.IsOnline()
}

// readBool returns a pull function for a bool point. Unbound devices read false.
func (b *base) readBool(point string) func() bool {
	return func() bool {
		ep := b.Endpoint()
		if ep == nil {
			return false
		}
		return ep.Bool(point)
	}
}

// readInt returns a pull function for an int point.
func (b *base) readInt(point string) func() int {
	return func() int {
		ep := b.Endpoint()
		if ep == nil {
			return 0
		}
		return ep.Int(point)
	}
}

// readString returns a pull function for a string point.
func (b *base) readString(point string) func() string {
	return func() string {
		ep := b.Endpoint()
		if ep == nil {
			return ""
		}
		return ep.String(point)
	}
}

// write runs fn against the endpoint, logging failures. Actions have no
// caller to return errors to.
func (b *base) write(op string, fn func(ep hardware.Endpoint) error) error {
	ep := b.Endpoint()
	if ep == nil {
		err := fmt.Errorf("%w: %s", ErrNotBound, b.desc.Key)
		b.logger.Warn("device action ignored", "device", b.desc.Key, "action", op, "error", err)
		return err
	}
	if err := fn(ep); err != nil {
		b.logger.Warn("device action failed", "device", b.desc.Key, "action", op, "error", err)
		return err
	}
	return nil
}

func (b *base) setBool(point string, v bool) error {
	return b.write(point, func(ep hardware.Endpoint) error { return ep.SetBool(point, v) })
}

func (b *base) setInt(point string, v int) error {
	return b.write(point, func(ep hardware.Endpoint) error { return ep.SetInt(point, v) })
}

func (b *base) setString(point string, v string) error {
	return b.write(point, func(ep hardware.Endpoint) error { return ep.SetString(point, v) })
}

func (b *base) invoke(command string) error {
	return b.write(command, func(ep hardware.Endpoint) error { return ep.Invoke(command) })
}

// Join map entry helpers.

func digitalJoin(name string, n uint32, dir joinmap.Direction, desc string) joinmap.Entry {
	return joinmap.Entry{Name: name, Number: n, Span: 1, Type: joinmap.Digital, Direction: dir, Description: desc}
}

func analogJoin(name string, n uint32, dir joinmap.Direction, desc string) joinmap.Entry {
	return joinmap.Entry{Name: name, Number: n, Span: 1, Type: joinmap.Analog, Direction: dir, Description: desc}
}

func serialJoin(name string, n uint32, dir joinmap.Direction, desc string) joinmap.Entry {
	return joinmap.Entry{Name: name, Number: n, Span: 1, Type: joinmap.Serial, Direction: dir, Description: desc}
}

// standardJoins are the online and name joins most modules carry.
func standardJoins() []joinmap.Entry {
	return []joinmap.Entry{
		digitalJoin(FeedbackIsOnline, 1, joinmap.ToBridge, "Device online"),
		serialJoin(bridge.NameJoin, 1, joinmap.ToBridge, "Device name"),
	}
}

package sim

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
)

// Write records a value an adapter wrote to an endpoint.
type Write struct {
	Point string
	Value any
}

// Endpoint is a simulated device. Adapters see it through the
// hardware.Endpoint interface; tests drive the hardware side through
// SetOnline, Drive and Emit.
//
// Handlers run synchronously on the goroutine that caused the change,
// after the endpoint's lock is released.
type Endpoint struct {
	ctrl *Controller
	host *Host
	spec models.Spec
	id   uint32

	mu         sync.RWMutex
	registered bool
	online     bool
	bools      map[string]bool
	ints       map[string]int
	strs       map[string]string
	writes     []Write
	onlineFns  []func(bool)
	eventFns   []func(hardware.Event)
	branches   map[hardware.Transport][]*Host
}

func newEndpoint(c *Controller, h *Host, spec models.Spec, id uint32) *Endpoint {
	ep := &Endpoint{
		ctrl:     c,
		host:     h,
		spec:     spec,
		id:       id,
		bools:    make(map[string]bool),
		ints:     make(map[string]int),
		strs:     make(map[string]string),
		branches: make(map[hardware.Transport][]*Host),
	}
	for t, n := range spec.Branches {
		hosts := make([]*Host, n)
		for i := range hosts {
			maxID := uint32(maxBusID)
			if t == hardware.TransportCardSlot {
				maxID = uint32(spec.Slots) //nolint:gosec // small slot counts
			}
			hosts[i] = newHost(c, fmt.Sprintf("%s/%s%d", ep.path(), t, i+1), t, maxID)
		}
		ep.branches[t] = hosts
	}
	return ep
}

func (e *Endpoint) path() string {
	if e.host == nil {
		return "processor/" + e.spec.Model
	}
	return fmt.Sprintf("%s/%d", e.host.id, e.id)
}

func (e *Endpoint) hostID() string {
	if e.host == nil {
		return "processor"
	}
	return e.host.id
}

// ID returns the endpoint's bus id.
func (e *Endpoint) ID() uint32 { return e.id }

// Model returns the model name.
func (e *Endpoint) Model() string { return e.spec.Model }

// Host returns the host the endpoint is attached to, or nil for embedded devices.
func (e *Endpoint) Host() hardware.Host {
	if e.host == nil {
		return nil
	}
	return e.host
}

// Register claims the id on the host.
func (e *Endpoint) Register() error {
	e.mu.RLock()
	done := e.registered
	e.mu.RUnlock()
	if done {
		return nil
	}
	if e.host == nil {
		return fmt.Errorf("%w: detached endpoint", hardware.ErrNoHost)
	}
	if err := e.host.register(e); err != nil {
		return err
	}

	e.mu.Lock()
	e.registered = true
	e.mu.Unlock()
	e.ctrl.track(e)

	if e.ctrl.autoOnline {
		e.SetOnline(true)
	}
	return nil
}

// Registered reports whether Register succeeded.
func (e *Endpoint) Registered() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registered
}

// IsOnline reports the endpoint's online state.
func (e *Endpoint) IsOnline() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.online
}

// OnOnlineChange subscribes to online transitions.
func (e *Endpoint) OnOnlineChange(fn func(bool)) {
	e.mu.Lock()
	e.onlineFns = append(e.onlineFns, fn)
	e.mu.Unlock()
}

// OnEvent subscribes to hardware events.
func (e *Endpoint) OnEvent(fn func(hardware.Event)) {
	e.mu.Lock()
	e.eventFns = append(e.eventFns, fn)
	e.mu.Unlock()
}

// Bool reads a bool point.
func (e *Endpoint) Bool(point string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bools[point]
}

// Int reads an int point.
func (e *Endpoint) Int(point string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ints[point]
}

// String reads a string point.
func (e *Endpoint) String(point string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.strs[point]
}

// SetBool writes a bool point. The device echoes the change as an event
// when it is online.
func (e *Endpoint) SetBool(point string, v bool) error {
	return e.write(point, hardware.PointBool, v)
}

// SetInt writes an int point.
func (e *Endpoint) SetInt(point string, v int) error {
	return e.write(point, hardware.PointInt, v)
}

// SetString writes a string point.
func (e *Endpoint) SetString(point string, v string) error {
	return e.write(point, hardware.PointString, v)
}

// Invoke runs a one-shot command.
func (e *Endpoint) Invoke(command string) error {
	if !e.Registered() {
		return hardware.ErrNotRegistered
	}
	if !e.spec.HasCommand(command) {
		return fmt.Errorf("%w: command %q on %s", hardware.ErrUnknownPoint, command, e.spec.Model)
	}

	e.mu.Lock()
	e.writes = append(e.writes, Write{Point: command})
	e.mu.Unlock()

	if fn, ok := commands[e.spec.Model+"."+command]; ok {
		fn(e)
	}
	return nil
}

// Branches returns the number of child hosts of transport t.
func (e *Endpoint) Branches(t hardware.Transport) int {
	return len(e.branches[t])
}

// Branch returns the child host at a 1-based index.
func (e *Endpoint) Branch(t hardware.Transport, index uint32) (hardware.Host, error) {
	hosts := e.branches[t]
	if index == 0 || int(index) > len(hosts) {
		return nil, fmt.Errorf("%w: %s %d of %d on %s", hardware.ErrNoBranch, t, index, len(hosts), e.path())
	}
	return hosts[index-1], nil
}

func (e *Endpoint) write(point string, kind hardware.PointKind, v any) error {
	if !e.Registered() {
		return hardware.ErrNotRegistered
	}
	p, ok := e.spec.Point(point)
	if !ok || p.Kind != kind {
		return fmt.Errorf("%w: %s %q on %s", hardware.ErrUnknownPoint, kind, point, e.spec.Model)
	}
	if !p.Writable {
		return fmt.Errorf("%w: %q on %s", hardware.ErrReadOnly, point, e.spec.Model)
	}

	e.mu.Lock()
	e.writes = append(e.writes, Write{Point: point, Value: v})
	online := e.online
	e.mu.Unlock()

	e.store(point, v)
	if online && p.Event.ID != 0 {
		e.Emit(p.Event)
	}
	return nil
}

func (e *Endpoint) store(point string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch val := v.(type) {
	case bool:
		e.bools[point] = val
	case int:
		e.ints[point] = val
	case string:
		e.strs[point] = val
	}
}

// SetOnline changes the online state and notifies subscribers on a change.
// Unregistered endpoints never come online.
func (e *Endpoint) SetOnline(online bool) {
	e.mu.Lock()
	if !e.registered || e.online == online {
		e.mu.Unlock()
		return
	}
	e.online = online
	fns := append([]func(bool){}, e.onlineFns...)
	e.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Drive changes a point from the hardware side (a sensor reading, a button
// press) and raises the point's event. Read-only points can be driven.
func (e *Endpoint) Drive(point string, v any) error {
	p, ok := e.spec.Point(point)
	if !ok {
		return fmt.Errorf("%w: %q on %s", hardware.ErrUnknownPoint, point, e.spec.Model)
	}
	switch v.(type) {
	case bool:
		if p.Kind != hardware.PointBool {
			return fmt.Errorf("%w: %q is %s", hardware.ErrUnknownPoint, point, p.Kind)
		}
	case int:
		if p.Kind != hardware.PointInt {
			return fmt.Errorf("%w: %q is %s", hardware.ErrUnknownPoint, point, p.Kind)
		}
	case string:
		if p.Kind != hardware.PointString {
			return fmt.Errorf("%w: %q is %s", hardware.ErrUnknownPoint, point, p.Kind)
		}
	default:
		return fmt.Errorf("sim: unsupported value type %T", v)
	}

	e.store(point, v)
	if p.Event.ID != 0 {
		e.Emit(p.Event)
	}
	return nil
}

// Emit raises a hardware event. Events are dropped until the endpoint registers.
func (e *Endpoint) Emit(ev hardware.Event) {
	e.mu.RLock()
	if !e.registered {
		e.mu.RUnlock()
		return
	}
	fns := append([]func(hardware.Event){}, e.eventFns...)
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Writes returns every value written by adapters, in order.
func (e *Endpoint) Writes() []Write {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Write, len(e.writes))
	copy(out, e.writes)
	return out
}

// Path returns the endpoint's address in the simulated topology.
func (e *Endpoint) Path() string { return e.path() }

package bridge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// NameJoin is the logical name of the serial join that carries a device's
// display name. Devices need no feedback for it.
const NameJoin = "Name"

// Linkable is a device that can be linked to a bridge.
type Linkable interface {
	Key() string
	Name() string
	Feedbacks() *feedback.Collection
	Actions() Actions

	// JoinMap returns the compiled-in default join map.
	JoinMap() joinmap.Map

	// OnlineSignal returns the bound endpoint's online signal, or nil when
	// the device has no endpoint.
	OnlineSignal() hardware.HasOnlineSignal
}

// LinkOptions place a device on a bridge.
type LinkOptions struct {
	// JoinStart is the absolute number of the device's first join.
	// 0 is treated as 1.
	JoinStart uint32

	// JoinMapKey selects the override. Empty uses the device key.
	JoinMapKey string
}

// Push describes one value sent to a bridge join.
type Push struct {
	Bridge   string             `json:"bridge"`
	Device   string             `json:"device"`
	Feedback string             `json:"feedback"`
	Type     joinmap.SignalType `json:"type"`
	Join     uint32             `json:"join"`
	Value    any                `json:"value"`
	Time     time.Time          `json:"time"`
}

// LinkerOptions configures a Linker.
type LinkerOptions struct {
	// Source supplies join map overrides. Nil means defaults only.
	Source joinmap.Source

	// Logger is optional structured logger.
	Logger Logger

	// Observers see every push, after the transport. They run on the
	// pushing goroutine and must not block.
	Observers []func(Push)
}

// Link is one established feedback→join or join→action connection.
type Link struct {
	Name      string             `json:"name"`
	Type      joinmap.SignalType `json:"type"`
	Join      uint32             `json:"join"`
	Direction joinmap.Direction  `json:"direction"`

	push func()
}

// Skip records a join map entry that was not linked and why.
type Skip struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result describes a device linked to a bridge.
type Result struct {
	Bridge     string         `json:"bridge"`
	Device     string         `json:"device"`
	JoinStart  uint32         `json:"join_start"`
	JoinMapKey string         `json:"join_map_key"`
	Origin     joinmap.Origin `json:"join_map_origin"`
	Outputs    []Link         `json:"outputs"`
	Inputs     []Link         `json:"inputs"`
	Skipped    []Skip         `json:"skipped,omitempty"`

	joinMap joinmap.Map
}

// JoinMap returns the effective, offset join map the device was linked with.
func (r *Result) JoinMap() joinmap.Map { return r.joinMap.Clone() }

// resync pushes every output's current value once.
func (r *Result) resync() {
	for _, l := range r.Outputs {
		l.push()
	}
}

type linkedBridge struct {
	transport Transport

	mu      sync.Mutex
	online  bool
	results []*Result
	byKey   map[string]*Result
	linking map[string]struct{}
}

// reserve claims devKey for one Link call. It fails if the device is
// already linked or another call is linking it.
func (lb *linkedBridge) reserve(devKey string) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if _, dup := lb.byKey[devKey]; dup {
		return false
	}
	if _, busy := lb.linking[devKey]; busy {
		return false
	}
	lb.linking[devKey] = struct{}{}
	return true
}

// Linker links devices to bridges and keeps them synchronised.
//
// For each bridge it tracks the online state itself, so every
// Offline→Online transition republishes each linked feedback exactly once
// even if the transport reports the same state twice.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Linker struct {
	source    joinmap.Source
	logger    Logger
	observers []func(Push)

	mu      sync.RWMutex
	bridges map[string]*linkedBridge
	order   []string
}

// NewLinker creates a linker.
func NewLinker(opts LinkerOptions) *Linker {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Linker{
		source:    opts.Source,
		logger:    opts.Logger,
		observers: opts.Observers,
		bridges:   make(map[string]*linkedBridge),
	}
}

// Link connects dev to t according to its effective join map and pushes
// initial values. Per-link problems are logged and recorded in the result;
// they never fail the call.
//
// Returns ErrDeviceUnbound for a device without an endpoint and
// ErrAlreadyLinked if dev is already on t or a concurrent call is linking
// it; the losing call attaches nothing.
func (l *Linker) Link(ctx context.Context, t Transport, dev Linkable, opts LinkOptions) (*Result, error) {
	sig := dev.OnlineSignal()
	if sig == nil {
		l.logger.Warn("not linking unbound device", "device", dev.Key(), "bridge", t.Key())
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnbound, dev.Key())
	}

	lb := l.bridge(t)
	devKey := strings.ToLower(dev.Key())
	if !lb.reserve(devKey) {
		return nil, fmt.Errorf("%w: %s on %s", ErrAlreadyLinked, dev.Key(), t.Key())
	}
	committed := false
	defer func() {
		if !committed {
			lb.mu.Lock()
			delete(lb.linking, devKey)
			lb.mu.Unlock()
		}
	}()

	mapKey := opts.JoinMapKey
	if mapKey == "" {
		mapKey = dev.Key()
	}
	// Override numbers are relative to JoinStart, the same as defaults.
	effective, origin := joinmap.Load(ctx, l.source, mapKey, dev.JoinMap(), l.logger)
	effective = effective.Offset(opts.JoinStart)

	res := &Result{
		Bridge:     t.Key(),
		Device:     dev.Key(),
		JoinStart:  max(opts.JoinStart, 1),
		JoinMapKey: mapKey,
		Origin:     origin,
		joinMap:    effective,
	}

	fbs := dev.Feedbacks()
	actions := dev.Actions()
	for _, e := range effective.Entries() {
		if e.Direction.Outbound() {
			l.linkOutput(t, dev, fbs, e, res)
		}
		if e.Direction.Inbound() {
			l.linkInput(t, dev, actions, e, res)
		}
	}

	lb.mu.Lock()
	delete(lb.linking, devKey)
	lb.byKey[devKey] = res
	lb.results = append(lb.results, res)
	lb.mu.Unlock()
	committed = true

	sig.OnOnlineChange(func(online bool) {
		if online {
			res.resync()
		}
	})
	res.resync()

	l.logger.Info("device linked to bridge",
		"device", dev.Key(),
		"bridge", t.Key(),
		"join_start", res.JoinStart,
		"join_map", origin,
		"outputs", len(res.Outputs),
		"inputs", len(res.Inputs),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

func (l *Linker) linkOutput(t Transport, dev Linkable, fbs *feedback.Collection, e joinmap.Entry, res *Result) {
	var fb feedback.Any
	if fbs != nil {
		fb, _ = fbs.Get(e.Name)
	}
	if fb == nil && strings.EqualFold(e.Name, NameJoin) {
		fb = feedback.NewString(NameJoin, dev.Name)
	}
	if fb == nil {
		l.logger.Debug("no feedback for join", "device", dev.Key(), "name", e.Name)
		return
	}

	push, err := l.sink(t, dev.Key(), fb, e)
	if err != nil {
		l.skip(dev, t, e, err, res)
		return
	}
	res.Outputs = append(res.Outputs, Link{
		Name:      fb.Key(),
		Type:      e.Type,
		Join:      e.Number,
		Direction: e.Direction,
		push:      push,
	})
}

// sink links fb to the join and returns a function that pushes fb's current
// value to this bridge only.
func (l *Linker) sink(t Transport, device string, fb feedback.Any, e joinmap.Entry) (func(), error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %s feedback %q on %s join %d",
			ErrJoinTypeMismatch, fb.Kind(), fb.Key(), e.Type, e.Number)
	}
	push := Push{Bridge: t.Key(), Device: device, Feedback: fb.Key(), Type: e.Type, Join: e.Number}

	switch f := fb.(type) {
	case *feedback.Feedback[bool]:
		if e.Type != joinmap.Digital {
			return nil, mismatch()
		}
		send := func(v bool) {
			t.SetDigital(e.Number, v)
			l.observe(push, v)
		}
		f.Link(send)
		return func() { send(f.Value()) }, nil

	case *feedback.Feedback[int]:
		if e.Type != joinmap.Analog {
			return nil, mismatch()
		}
		send := func(v int) {
			a := clampAnalog(v)
			t.SetAnalog(e.Number, a)
			l.observe(push, a)
		}
		f.Link(send)
		return func() { send(f.Value()) }, nil

	case *feedback.Feedback[string]:
		if e.Type != joinmap.Serial {
			return nil, mismatch()
		}
		send := func(v string) {
			t.SetSerial(e.Number, v)
			l.observe(push, v)
		}
		f.Link(send)
		return func() { send(f.Value()) }, nil

	default:
		return nil, mismatch()
	}
}

func (l *Linker) linkInput(t Transport, dev Linkable, actions Actions, e joinmap.Entry, res *Result) {
	name, act, ok := actions.Lookup(e.Name)
	if !ok {
		return
	}

	switch {
	case e.Type == joinmap.Digital && act.Kind == feedback.KindBool && act.Bool != nil:
		t.OnDigital(e.Number, act.Bool)
	case e.Type == joinmap.Analog && act.Kind == feedback.KindInt && act.Int != nil:
		fn := act.Int
		t.OnAnalog(e.Number, func(v uint16) { fn(int(v)) })
	case e.Type == joinmap.Serial && act.Kind == feedback.KindString && act.String != nil:
		t.OnSerial(e.Number, act.String)
	default:
		l.skip(dev, t, e, fmt.Errorf("%w: %s action %q on %s join %d",
			ErrJoinTypeMismatch, act.Kind, name, e.Type, e.Number), res)
		return
	}

	res.Inputs = append(res.Inputs, Link{
		Name:      name,
		Type:      e.Type,
		Join:      e.Number,
		Direction: e.Direction,
	})
}

func (l *Linker) skip(dev Linkable, t Transport, e joinmap.Entry, err error, res *Result) {
	l.logger.Warn("join link skipped",
		"device", dev.Key(),
		"bridge", t.Key(),
		"name", e.Name,
		"error", err,
	)
	res.Skipped = append(res.Skipped, Skip{Name: e.Name, Reason: err.Error()})
}

func (l *Linker) observe(p Push, v any) {
	if len(l.observers) == 0 {
		return
	}
	p.Value = v
	p.Time = time.Now()
	for _, fn := range l.observers {
		fn(p)
	}
}

// bridge returns the tracking state for t, subscribing to its online
// signal the first time t is seen.
func (l *Linker) bridge(t Transport) *linkedBridge {
	key := strings.ToLower(t.Key())

	l.mu.Lock()
	lb, ok := l.bridges[key]
	if !ok {
		lb = &linkedBridge{transport: t, byKey: make(map[string]*Result), linking: make(map[string]struct{})}
		l.bridges[key] = lb
		l.order = append(l.order, t.Key())
	}
	l.mu.Unlock()

	if !ok {
		lb.mu.Lock()
		lb.online = t.IsOnline()
		lb.mu.Unlock()
		t.OnOnlineChange(func(online bool) { l.bridgeOnline(lb, online) })
	}
	return lb
}

func (l *Linker) bridgeOnline(lb *linkedBridge, online bool) {
	lb.mu.Lock()
	if lb.online == online {
		lb.mu.Unlock()
		return
	}
	lb.online = online
	results := append([]*Result{}, lb.results...)
	lb.mu.Unlock()

	l.logger.Info("bridge online state changed", "bridge", lb.transport.Key(), "online", online, "devices", len(results))
	if !online {
		return
	}
	for _, r := range results {
		r.resync()
	}
}

// Bridges returns the keys of every bridge seen, in first-link order.
func (l *Linker) Bridges() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Transport returns the transport registered under key.
func (l *Linker) Transport(key string) (Transport, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lb, ok := l.bridges[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return lb.transport, true
}

// Register makes t known to the linker without linking a device, so that
// bridges with no links still appear in Bridges.
func (l *Linker) Register(t Transport) { l.bridge(t) }

// Results returns the devices linked to a bridge, in link order.
func (l *Linker) Results(bridgeKey string) []*Result {
	l.mu.RLock()
	lb, ok := l.bridges[strings.ToLower(bridgeKey)]
	l.mu.RUnlock()
	if !ok {
		return nil
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return append([]*Result{}, lb.results...)
}

// DeviceResults returns every link of one device across bridges, ordered
// by bridge key.
func (l *Linker) DeviceResults(deviceKey string) []*Result {
	l.mu.RLock()
	bridges := make([]*linkedBridge, 0, len(l.bridges))
	for _, lb := range l.bridges {
		bridges = append(bridges, lb)
	}
	l.mu.RUnlock()

	var out []*Result
	for _, lb := range bridges {
		lb.mu.Lock()
		if r, ok := lb.byKey[strings.ToLower(deviceKey)]; ok {
			out = append(out, r)
		}
		lb.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bridge < out[j].Bridge })
	return out
}

func clampAnalog(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}

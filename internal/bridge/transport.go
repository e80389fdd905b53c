package bridge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// Logger defines the logging interface used by the bridge package.
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

// Transport is the external signal bridge. Set calls are last-write-wins
// and never fail; a transport that cannot deliver logs and keeps the value
// for inspection.
type Transport interface {
	Key() string

	SetDigital(join uint32, v bool)
	SetAnalog(join uint32, v uint16)
	SetSerial(join uint32, v string)

	// On* register handlers for inbound signals. Handlers may run on any
	// goroutine.
	OnDigital(join uint32, fn func(bool))
	OnAnalog(join uint32, fn func(uint16))
	OnSerial(join uint32, fn func(string))

	IsOnline() bool
	OnOnlineChange(fn func(online bool))
}

// Join identifies one typed join on a bridge.
type Join struct {
	Type   joinmap.SignalType `json:"type"`
	Number uint32             `json:"join"`
}

func (j Join) String() string { return fmt.Sprintf("%s/%d", j.Type, j.Number) }

// JoinValue is a join and its last value.
type JoinValue struct {
	Join
	Value any `json:"value"`
}

// ParseValue converts text to the Go type carried by joins of type t:
// bool for digital, uint16 for analog and string for serial.
func ParseValue(t joinmap.SignalType, s string) (any, error) {
	switch t {
	case joinmap.Digital:
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: digital %q", ErrInvalidPayload, s)
		}
		return v, nil
	case joinmap.Analog:
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: analog %q", ErrInvalidPayload, s)
		}
		return uint16(v), nil
	case joinmap.Serial:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, t)
	}
}

// joinTable is the state shared by transports: last values in each
// direction, inbound handlers and the online signal.
type joinTable struct {
	mu        sync.RWMutex
	outputs   map[Join]any
	inputs    map[Join]any
	pushes    map[Join]int
	handlers  map[Join][]func(any)
	online    bool
	onlineFns []func(bool)
}

func newJoinTable() *joinTable {
	return &joinTable{
		outputs:  make(map[Join]any),
		inputs:   make(map[Join]any),
		pushes:   make(map[Join]int),
		handlers: make(map[Join][]func(any)),
	}
}

func (t *joinTable) setOutput(j Join, v any) {
	t.mu.Lock()
	t.outputs[j] = v
	t.pushes[j]++
	t.mu.Unlock()
}

func (t *joinTable) output(j Join) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.outputs[j]
	return v, ok
}

func (t *joinTable) pushCount(j Join) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pushes[j]
}

func (t *joinTable) handle(j Join, fn func(any)) {
	t.mu.Lock()
	t.handlers[j] = append(t.handlers[j], fn)
	t.mu.Unlock()
}

// dispatch records an inbound value and runs its handlers outside the lock.
func (t *joinTable) dispatch(j Join, v any) int {
	t.mu.Lock()
	t.inputs[j] = v
	fns := append([]func(any){}, t.handlers[j]...)
	t.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return len(fns)
}

func (t *joinTable) isOnline() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.online
}

func (t *joinTable) onOnlineChange(fn func(bool)) {
	t.mu.Lock()
	t.onlineFns = append(t.onlineFns, fn)
	t.mu.Unlock()
}

// setOnline notifies subscribers only when the state changes.
func (t *joinTable) setOnline(online bool) bool {
	t.mu.Lock()
	if t.online == online {
		t.mu.Unlock()
		return false
	}
	t.online = online
	fns := append([]func(bool){}, t.onlineFns...)
	t.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

// snapshot returns outputs ordered by type and number.
func (t *joinTable) snapshot() []JoinValue {
	t.mu.RLock()
	out := make([]JoinValue, 0, len(t.outputs))
	for j, v := range t.outputs {
		out = append(out, JoinValue{Join: j, Value: v})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].Type != out[k].Type {
			return signalOrder(out[i].Type) < signalOrder(out[k].Type)
		}
		return out[i].Number < out[k].Number
	})
	return out
}

func signalOrder(t joinmap.SignalType) int {
	switch t {
	case joinmap.Digital:
		return 0
	case joinmap.Analog:
		return 1
	default:
		return 2
	}
}

func digitalHandler(fn func(bool)) func(any) {
	return func(v any) {
		if b, ok := v.(bool); ok {
			fn(b)
		}
	}
}

func analogHandler(fn func(uint16)) func(any) {
	return func(v any) {
		if n, ok := v.(uint16); ok {
			fn(n)
		}
	}
}

func serialHandler(fn func(string)) func(any) {
	return func(v any) {
		if s, ok := v.(string); ok {
			fn(s)
		}
	}
}

package feedback

import (
	"fmt"
	"sync"
)

// Kind is the value type a feedback carries.
type Kind int

// Feedback kinds.
const (
	KindBool Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the set of types a feedback can carry.
type Value interface {
	bool | int | string
}

// Sink receives pushed values. Sinks must accept redundant pushes of the
// same value; the last write wins.
type Sink[T Value] func(v T)

// Any is the kind-erased view of a Feedback, used by collections and the
// bridge linker.
type Any interface {
	Key() string
	Kind() Kind
	FireUpdate()
	// Current returns Value() boxed.
	Current() any
}

// Feedback is an observable scalar computed on demand from a pull function.
//
// Value never caches; it re-reads the source on every call. FireUpdate
// re-reads and pushes to every linked sink unconditionally, and remembers
// the pushed value for inspection.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The pull function is called
//     without any lock held.
type Feedback[T Value] struct {
	key  string
	kind Kind
	pull func() T

	mu         sync.RWMutex
	sinks      []Sink[T]
	lastPushed T
	pushed     bool
}

// New creates a feedback. The kind is derived from T.
func New[T Value](key string, pull func() T) *Feedback[T] {
	return &Feedback[T]{
		key:  key,
		kind: kindOf[T](),
		pull: pull,
	}
}

// NewBool creates a bool feedback.
func NewBool(key string, pull func() bool) *Feedback[bool] { return New(key, pull) }

// NewInt creates an int feedback.
func NewInt(key string, pull func() int) *Feedback[int] { return New(key, pull) }

// NewString creates a string feedback.
func NewString(key string, pull func() string) *Feedback[string] { return New(key, pull) }

func kindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool
	case int:
		return KindInt
	default:
		return KindString
	}
}

// Key returns the feedback's identifying key.
func (f *Feedback[T]) Key() string { return f.key }

// Kind returns the feedback's value kind.
func (f *Feedback[T]) Kind() Kind { return f.kind }

// Value evaluates the pull function.
func (f *Feedback[T]) Value() T { return f.pull() }

// Current returns Value boxed as any.
func (f *Feedback[T]) Current() any { return f.pull() }

// Link adds a sink. It does not push; call FireUpdate for an initial value.
func (f *Feedback[T]) Link(s Sink[T]) {
	f.mu.Lock()
	f.sinks = append(f.sinks, s)
	f.mu.Unlock()
}

// Linked returns how many sinks are attached.
func (f *Feedback[T]) Linked() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.sinks)
}

// FireUpdate evaluates the source and pushes the result to every sink,
// changed or not.
func (f *Feedback[T]) FireUpdate() {
	v := f.pull()

	f.mu.Lock()
	f.lastPushed = v
	f.pushed = true
	sinks := make([]Sink[T], len(f.sinks))
	copy(sinks, f.sinks)
	f.mu.Unlock()

	for _, s := range sinks {
		s(v)
	}
}

// LastPushed returns the value of the most recent FireUpdate and whether
// there has been one.
func (f *Feedback[T]) LastPushed() (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastPushed, f.pushed
}

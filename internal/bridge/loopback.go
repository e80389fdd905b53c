package bridge

import (
	"fmt"

	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// Loopback is an in-process Transport. Values pushed by devices are kept
// for inspection; Inject* play the part of a control surface.
//
// A Loopback starts offline.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Loopback struct {
	key   string
	table *joinTable
}

// NewLoopback creates an offline loopback bridge.
func NewLoopback(key string) *Loopback {
	return &Loopback{key: key, table: newJoinTable()}
}

// Key returns the bridge key.
func (l *Loopback) Key() string { return l.key }

// SetDigital implements Transport.
func (l *Loopback) SetDigital(join uint32, v bool) {
	l.table.setOutput(Join{Type: joinmap.Digital, Number: join}, v)
}

// SetAnalog implements Transport.
func (l *Loopback) SetAnalog(join uint32, v uint16) {
	l.table.setOutput(Join{Type: joinmap.Analog, Number: join}, v)
}

// SetSerial implements Transport.
func (l *Loopback) SetSerial(join uint32, v string) {
	l.table.setOutput(Join{Type: joinmap.Serial, Number: join}, v)
}

// OnDigital implements Transport.
func (l *Loopback) OnDigital(join uint32, fn func(bool)) {
	l.table.handle(Join{Type: joinmap.Digital, Number: join}, digitalHandler(fn))
}

// OnAnalog implements Transport.
func (l *Loopback) OnAnalog(join uint32, fn func(uint16)) {
	l.table.handle(Join{Type: joinmap.Analog, Number: join}, analogHandler(fn))
}

// OnSerial implements Transport.
func (l *Loopback) OnSerial(join uint32, fn func(string)) {
	l.table.handle(Join{Type: joinmap.Serial, Number: join}, serialHandler(fn))
}

// IsOnline implements Transport.
func (l *Loopback) IsOnline() bool { return l.table.isOnline() }

// OnOnlineChange implements Transport.
func (l *Loopback) OnOnlineChange(fn func(bool)) { l.table.onOnlineChange(fn) }

// SetOnline changes the bridge's online state. Subscribers are notified
// only on a change.
func (l *Loopback) SetOnline(online bool) { l.table.setOnline(online) }

// InjectDigital simulates a control surface writing a digital join.
func (l *Loopback) InjectDigital(join uint32, v bool) {
	l.table.dispatch(Join{Type: joinmap.Digital, Number: join}, v)
}

// InjectAnalog simulates a control surface writing an analog join.
func (l *Loopback) InjectAnalog(join uint32, v uint16) {
	l.table.dispatch(Join{Type: joinmap.Analog, Number: join}, v)
}

// InjectSerial simulates a control surface writing a serial join.
func (l *Loopback) InjectSerial(join uint32, v string) {
	l.table.dispatch(Join{Type: joinmap.Serial, Number: join}, v)
}

// Inject parses raw for the join's type and dispatches it. It returns how
// many handlers ran.
func (l *Loopback) Inject(j Join, raw string) (int, error) {
	v, err := ParseValue(j.Type, raw)
	if err != nil {
		return 0, fmt.Errorf("inject %s on %s: %w", j, l.key, err)
	}
	return l.table.dispatch(j, v), nil
}

// Digital returns the last value pushed to a digital join.
func (l *Loopback) Digital(join uint32) bool {
	v, _ := l.table.output(Join{Type: joinmap.Digital, Number: join})
	b, _ := v.(bool)
	return b
}

// Analog returns the last value pushed to an analog join.
func (l *Loopback) Analog(join uint32) uint16 {
	v, _ := l.table.output(Join{Type: joinmap.Analog, Number: join})
	n, _ := v.(uint16)
	return n
}

// Serial returns the last value pushed to a serial join.
func (l *Loopback) Serial(join uint32) string {
	v, _ := l.table.output(Join{Type: joinmap.Serial, Number: join})
	s, _ := v.(string)
	return s
}

// Pushes returns how many times j has been written.
func (l *Loopback) Pushes(j Join) int { return l.table.pushCount(j) }

// Joins returns every join written so far with its last value.
func (l *Loopback) Joins() []JoinValue { return l.table.snapshot() }

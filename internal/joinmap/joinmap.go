package joinmap

import (
	"fmt"
	"sort"
	"strings"
)

// Direction says which way a join carries data.
type Direction string

// Join directions, named from the bridge's point of view.
const (
	// ToBridge joins carry device state out to the bridge (feedback).
	ToBridge Direction = "toBridge"
	// FromBridge joins carry bridge signals in to the device (actions).
	FromBridge Direction = "fromBridge"
	// Both joins do both.
	Both Direction = "both"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case ToBridge, FromBridge, Both:
		return true
	default:
		return false
	}
}

// Outbound reports whether the join publishes device state.
func (d Direction) Outbound() bool { return d == ToBridge || d == Both }

// Inbound reports whether the join accepts bridge signals.
func (d Direction) Inbound() bool { return d == FromBridge || d == Both }

// SignalType is the bridge join type.
type SignalType string

// Join signal types.
const (
	Digital SignalType = "digital"
	Analog  SignalType = "analog"
	Serial  SignalType = "serial"
)

// Valid reports whether t is a known signal type.
func (t SignalType) Valid() bool {
	switch t {
	case Digital, Analog, Serial:
		return true
	default:
		return false
	}
}

// Entry is one logical point's join assignment.
type Entry struct {
	Name        string     `json:"-"`
	Number      uint32     `json:"joinNumber"`
	Span        uint32     `json:"joinSpan"`
	Type        SignalType `json:"joinType"`
	Direction   Direction  `json:"direction"`
	Description string     `json:"description,omitempty"`
}

// Last returns the highest join number the entry covers.
func (e Entry) Last() uint32 {
	if e.Span == 0 {
		return e.Number
	}
	return e.Number + e.Span - 1
}

// Map is a device's join table keyed by logical name.
type Map map[string]Entry

// New builds a map from entries. Entry names become the keys.
func New(entries ...Entry) Map {
	m := make(Map, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}

// Lookup finds an entry by logical name, ignoring case.
func (m Map) Lookup(name string) (Entry, bool) {
	if e, ok := m[name]; ok {
		return e.named(name), true
	}
	for k, e := range m {
		if strings.EqualFold(k, name) {
			return e.named(k), true
		}
	}
	return Entry{}, false
}

func (e Entry) named(name string) Entry {
	e.Name = name
	return e
}

// Entries returns the map's entries ordered by signal type, join number
// and name.
func (m Map) Entries() []Entry {
	out := make([]Entry, 0, len(m))
	for k, e := range m {
		out = append(out, e.named(k))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return typeOrder(out[i].Type) < typeOrder(out[j].Type)
		}
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func typeOrder(t SignalType) int {
	switch t {
	case Digital:
		return 0
	case Analog:
		return 1
	default:
		return 2
	}
}

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, e := range m {
		out[k] = e
	}
	return out
}

// Offset returns a copy with every join number moved onto the block that
// starts at joinStart. A joinStart of 0 or 1 leaves numbers unchanged.
func (m Map) Offset(joinStart uint32) Map {
	out := m.Clone()
	if joinStart <= 1 {
		return out
	}
	for k, e := range out {
		e.Number += joinStart - 1
		out[k] = e
	}
	return out
}

// Validate checks every entry and that no two names alias the same
// (number, type) pair. All problems are reported together.
func (m Map) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: no entries", ErrOverrideInvalid)
	}

	var errs []string
	seen := make(map[string]string, len(m))
	for _, e := range m.Entries() {
		lower := strings.ToLower(e.Name)
		if e.Name == "" {
			errs = append(errs, "entry with empty name")
		} else if prev, dup := seen[lower]; dup {
			errs = append(errs, fmt.Sprintf("%q duplicates %q", e.Name, prev))
		}
		seen[lower] = e.Name

		if e.Number == 0 {
			errs = append(errs, fmt.Sprintf("%s: joinNumber must be at least 1", e.Name))
		}
		if e.Span == 0 {
			errs = append(errs, fmt.Sprintf("%s: joinSpan must be at least 1", e.Name))
		}
		if !e.Type.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown joinType %q", e.Name, e.Type))
		}
		if !e.Direction.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown direction %q", e.Name, e.Direction))
		}
	}
	errs = append(errs, m.aliases()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrOverrideInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// aliases reports overlapping ranges of the same type held by different names.
// Entries is sorted by type, so the backward scan stops at the first entry
// of another type.
func (m Map) aliases() []string {
	var errs []string
	entries := m.Entries()
	for i := 1; i < len(entries); i++ {
		cur := entries[i]
		for j := i - 1; j >= 0; j-- {
			prev := entries[j]
			if prev.Type != cur.Type {
				break
			}
			if prev.Span == 0 || cur.Span == 0 {
				continue
			}
			if prev.Last() >= cur.Number && !strings.EqualFold(prev.Name, cur.Name) {
				errs = append(errs, fmt.Sprintf("%s join %d is shared by %q and %q",
					cur.Type, cur.Number, prev.Name, cur.Name))
			}
		}
	}
	return errs
}

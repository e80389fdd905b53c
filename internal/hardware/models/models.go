package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

// Point describes one typed point on a model.
type Point struct {
	Name     string
	Kind     hardware.PointKind
	Event    hardware.Event
	Writable bool
}

// Spec describes what a hardware model exposes.
type Spec struct {
	Model string

	// Transports lists the host kinds the model can be attached to.
	// Embedded models are only reachable through Controller.Embedded.
	Transports []hardware.Transport
	Embedded   bool

	Points   []Point
	Commands []string

	// Branches is the number of child hosts per transport the model provides.
	Branches map[hardware.Transport]int

	// Slots is the number of card positions on a card cage's card-slot
	// branch. Cards are attached with their slot number as id.
	Slots int
}

// Point returns the named point.
func (s Spec) Point(name string) (Point, bool) {
	for _, p := range s.Points {
		if p.Name == name {
			return p, true
		}
	}
	return Point{}, false
}

// HasCommand reports whether the model accepts the named command.
func (s Spec) HasCommand(name string) bool {
	for _, c := range s.Commands {
		if c == name {
			return true
		}
	}
	return false
}

// AttachableTo reports whether the model can be attached to a host of transport t.
func (s Spec) AttachableTo(t hardware.Transport) bool {
	for _, tt := range s.Transports {
		if tt == t {
			return true
		}
	}
	return false
}

var specs = map[string]Spec{}

func register(s Spec) {
	if _, dup := specs[s.Model]; dup {
		panic(fmt.Sprintf("models: duplicate model %q", s.Model))
	}
	specs[s.Model] = s
}

// Lookup returns the spec for a model name (case-insensitive).
func Lookup(model string) (Spec, bool) {
	s, ok := specs[strings.ToLower(model)]
	return s, ok
}

// Names returns every known model name, sorted.
func Names() []string {
	names := make([]string, 0, len(specs))
	for n := range specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Indexed builds the point name for the n-th instance of a repeated point,
// e.g. Indexed("Relay", 3) == "Relay3".
func Indexed(base string, n int) string {
	return fmt.Sprintf("%s%d", base, n)
}

// repeated builds count points named base1..baseN sharing one event id.
func repeated(base string, count int, kind hardware.PointKind, ev hardware.EventID, writable bool) []Point {
	points := make([]Point, 0, count)
	for i := 1; i <= count; i++ {
		points = append(points, Point{
			Name:     Indexed(base, i),
			Kind:     kind,
			Event:    hardware.Event{ID: ev, Index: uint32(i)}, //nolint:gosec // small positive counts
			Writable: writable,
		})
	}
	return points
}

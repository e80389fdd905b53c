package modules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/device"
)

// Factory builds a module from a descriptor.
type Factory func(desc device.Descriptor, opts Options) (Module, error)

// Catalogue maps descriptor types to factories.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Catalogue struct {
	opts Options

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalogue creates a catalogue with every built-in adapter registered.
func NewCatalogue(opts Options) *Catalogue {
	c := &Catalogue{
		opts:      opts.withDefaults(),
		factories: make(map[string]Factory),
	}
	for _, b := range builtins {
		if err := c.Register(b.factory, b.types...); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds a factory under one or more type names (case-insensitive).
// Returns ErrDuplicateType if any name is taken; nothing is registered then.
func (c *Catalogue) Register(f Factory, types ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range types {
		if _, dup := c.factories[strings.ToLower(t)]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateType, t)
		}
	}
	for _, t := range types {
		c.factories[strings.ToLower(t)] = f
	}
	return nil
}

// Build constructs the module for desc. It does not touch hardware;
// binding happens at pre-activation.
func (c *Catalogue) Build(desc device.Descriptor) (Module, error) {
	c.mu.RLock()
	f, ok := c.factories[strings.ToLower(desc.Type)]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (device %s)", ErrUnknownType, desc.Type, desc.Key)
	}
	m, err := f(desc, c.opts)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", desc.Key, err)
	}
	return m, nil
}

// Types returns every registered type name, sorted.
func (c *Catalogue) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factories))
	for t := range c.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

type builtin struct {
	factory Factory
	types   []string
}

var builtins = []builtin{
	{newPartitionSensor, []string{TypeGlsPartCn}},
	{newRths, []string{TypeC2nRths}},
	{newVersiport, []string{TypeC2nIo, TypeDinIo8}},
	{newSwitchedLoads, []string{TypeDin8Sw8}},
	{newRelayCard, []string{TypeC3Ry16}},
	{newCresnetHub, []string{TypeCenCn2}},
	{newCardCage, []string{TypeCenCi31, TypeCenCi33, TypeInternalCardCage}},
	{newRFGateway, []string{TypeCenRfgwEx, TypeCenErfgwPoe, TypeCenGwExEr, TypeInternalGateway, TypeInternalRfgw}},
	{newRemote, []string{TypeHr100, TypeHr150, TypeHr310}},
	{newComPorts, []string{TypeCenIoCom102}},
	{newDigitalInputs, []string{TypeCenIoDigIn104}},
}

// cageProperties is the properties block of a card cage.
type cageProperties struct {
	// Cards maps slot to card type. Keys are slot numbers, optionally
	// prefixed with "card": {"1": "c3ry16"} or {"card1": "c3ry16"}.
	Cards map[string]string `yaml:"cards"`
}

// ExpandCards returns descs with a child descriptor inserted after every
// card cage for each card in its cards property. Children are keyed
// "{cage}-card{slot}" and addressed by slot on the cage.
//
// A cage whose cards cannot be expanded, or whose child keys collide with
// another device, is left out together with its children and reported in
// the returned errors; every other descriptor is kept.
func ExpandCards(descs []device.Descriptor) ([]device.Descriptor, []error) {
	taken := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		taken[strings.ToLower(d.Key)] = struct{}{}
	}

	var errs []error
	out := make([]device.Descriptor, 0, len(descs))
	for _, d := range descs {
		if !isCardCage(d.Type) {
			out = append(out, d)
			continue
		}
		cards, err := expandCage(d, taken)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, c := range cards {
			taken[strings.ToLower(c.Key)] = struct{}{}
		}
		out = append(out, d)
		out = append(out, cards...)
	}
	return out, errs
}

// expandCage builds the child descriptors of one cage, in slot order.
func expandCage(d device.Descriptor, taken map[string]struct{}) ([]device.Descriptor, error) {
	var props cageProperties
	if err := d.DecodeProperties(&props); err != nil {
		return nil, err
	}

	slots := make([]uint32, 0, len(props.Cards))
	types := make(map[uint32]string, len(props.Cards))
	for k, t := range props.Cards {
		slot, err := parseSlot(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %s cards: %w", ErrInvalidProperties, d.Key, err)
		}
		if _, dup := types[slot]; dup {
			return nil, fmt.Errorf("%w: %s cards: slot %d listed twice", ErrInvalidProperties, d.Key, slot)
		}
		slots = append(slots, slot)
		types[slot] = strings.ToLower(strings.TrimSpace(t))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	cards := make([]device.Descriptor, 0, len(slots))
	for _, slot := range slots {
		key := fmt.Sprintf("%s-card%d", d.Key, slot)
		if _, dup := taken[strings.ToLower(key)]; dup {
			return nil, fmt.Errorf("%w: %s cards: child key %q is already in use", ErrInvalidProperties, d.Key, key)
		}
		name := fmt.Sprintf("%s Card %d", d.Name, slot)
		if d.Name == "" {
			name = fmt.Sprintf("%s card %d", d.Key, slot)
		}
		cards = append(cards, device.Descriptor{
			Key:  key,
			Name: name,
			Type: types[slot],
			Control: device.Addressing{
				Slot:      device.Uint32(slot),
				ParentKey: d.Key,
			},
		})
	}
	return cards, nil
}

func parseSlot(k string) (uint32, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(k)), "card")
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("bad slot %q", k)
	}
	return uint32(n), nil
}

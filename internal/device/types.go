package device

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

// RootParent is the parent key that means "the root controller".
// An empty parent key means the same.
const RootParent = "processor"

// DefaultBranchIndex is used when a descriptor names a parent but no branch.
const DefaultBranchIndex uint32 = 1

// Device is a live device instance held in the Registry.
type Device interface {
	Key() string
	Name() string
}

// Descriptor is one device entry from the devices file. It is immutable
// once loaded.
type Descriptor struct {
	Key     string     `yaml:"key" json:"key"`
	Name    string     `yaml:"name" json:"name"`
	Type    string     `yaml:"type" json:"type"`
	Control Addressing `yaml:"control" json:"control"`

	// Properties is decoded by the adapter for Type.
	Properties yaml.Node `yaml:"properties" json:"-"`
}

// DecodeProperties decodes the properties block into v. A missing block
// leaves v untouched.
func (d Descriptor) DecodeProperties(v any) error {
	if d.Properties.Kind == 0 {
		return nil
	}
	if err := d.Properties.Decode(v); err != nil {
		return fmt.Errorf("%w: %s properties: %w", ErrInvalidDevice, d.Key, err)
	}
	return nil
}

// Addressing locates a device on the hardware. Exactly one of the id fields
// is set for devices bound by id; embedded devices set none.
type Addressing struct {
	CresnetID *uint32 `yaml:"cresnet_id,omitempty" json:"cresnetId,omitempty"`
	IPID      *uint32 `yaml:"ip_id,omitempty" json:"ipId,omitempty"`
	RFID      *uint32 `yaml:"rf_id,omitempty" json:"rfId,omitempty"`
	Slot      *uint32 `yaml:"slot,omitempty" json:"slot,omitempty"`

	// ParentKey names a registered bridging parent. Empty or RootParent
	// binds against the root controller.
	ParentKey string `yaml:"parent_key,omitempty" json:"parentKey,omitempty"`

	// BranchIndex selects the parent's branch (1-based). Nil means
	// DefaultBranchIndex.
	BranchIndex *uint32 `yaml:"branch_index,omitempty" json:"branchIndex,omitempty"`
}

// IsRoot reports whether the device binds against the root controller.
func (a Addressing) IsRoot() bool {
	return a.ParentKey == "" || strings.EqualFold(a.ParentKey, RootParent)
}

// Branch returns the branch index, applying the default.
func (a Addressing) Branch() uint32 {
	if a.BranchIndex == nil {
		return DefaultBranchIndex
	}
	return *a.BranchIndex
}

// HasID reports whether any id field is set.
func (a Addressing) HasID() bool {
	return a.CresnetID != nil || a.IPID != nil || a.RFID != nil || a.Slot != nil
}

// Endpoint returns the transport kind and id. It fails when no id or
// more than one id is set.
func (a Addressing) Endpoint() (hardware.Transport, uint32, error) {
	var (
		t     hardware.Transport
		id    uint32
		count int
	)
	set := func(kind hardware.Transport, v *uint32) {
		if v != nil {
			t, id = kind, *v
			count++
		}
	}
	set(hardware.TransportCresnet, a.CresnetID)
	set(hardware.TransportIP, a.IPID)
	set(hardware.TransportRF, a.RFID)
	set(hardware.TransportCardSlot, a.Slot)

	switch count {
	case 0:
		return "", 0, fmt.Errorf("%w: no cresnet_id, ip_id, rf_id or slot", ErrInvalidAddress)
	case 1:
		return t, id, nil
	default:
		return "", 0, fmt.Errorf("%w: cresnet_id, ip_id, rf_id and slot are mutually exclusive", ErrInvalidAddress)
	}
}

// Validate checks the block for internal consistency. It does not check
// that the parent exists; that is the resolver's job.
func (a Addressing) Validate() error {
	if a.HasID() {
		if _, _, err := a.Endpoint(); err != nil {
			return err
		}
	}
	if a.BranchIndex != nil && *a.BranchIndex == 0 {
		return fmt.Errorf("%w: branch_index starts at 1", ErrInvalidAddress)
	}
	if a.Slot != nil && a.IsRoot() {
		return fmt.Errorf("%w: slot requires a card cage parent_key", ErrInvalidAddress)
	}
	return nil
}

// Uint32 returns a pointer to v. Handy for building descriptors in code.
func Uint32(v uint32) *uint32 { return &v }

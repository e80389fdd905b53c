package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
)

// Host is a simulated bus segment. It enforces the id range and id
// uniqueness a real bus master would.
type Host struct {
	id        string
	transport hardware.Transport
	maxID     uint32
	ctrl      *Controller

	mu        sync.Mutex
	endpoints map[uint32]*Endpoint
}

func newHost(c *Controller, id string, t hardware.Transport, maxID uint32) *Host {
	return &Host{
		id:        id,
		transport: t,
		maxID:     maxID,
		ctrl:      c,
		endpoints: make(map[uint32]*Endpoint),
	}
}

// HostID returns the host's path, e.g. "processor/cresnet" or "hub-1/cresnet2".
func (h *Host) HostID() string { return h.id }

// Transport returns the host's transport kind.
func (h *Host) Transport() hardware.Transport { return h.transport }

// Attach constructs an unregistered endpoint. Id validation happens at
// Register, as it does on real hardware.
func (h *Host) Attach(model string, id uint32) (hardware.Endpoint, error) {
	spec, ok := models.Lookup(strings.ToLower(model))
	if !ok {
		return nil, fmt.Errorf("%w: %q", hardware.ErrUnknownModel, model)
	}
	if !spec.AttachableTo(h.transport) {
		return nil, fmt.Errorf("%w: %s cannot attach to %s host %s", hardware.ErrUnknownModel, spec.Model, h.transport, h.id)
	}
	return newEndpoint(h.ctrl, h, spec, id), nil
}

func (h *Host) register(ep *Endpoint) error {
	if ep.id == 0 || ep.id > h.maxID {
		return fmt.Errorf("%w: %d not in 1..%d on %s", hardware.ErrInvalidID, ep.id, h.maxID, h.id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if other, taken := h.endpoints[ep.id]; taken && other != ep {
		return fmt.Errorf("%w: %d on %s (%s)", hardware.ErrIDInUse, ep.id, h.id, other.spec.Model)
	}
	h.endpoints[ep.id] = ep
	return nil
}

// Len returns how many endpoints are registered on the host.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.endpoints)
}

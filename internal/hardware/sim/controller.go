package sim

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
)

// maxBusID is the highest node id a cresnet, IP or RF host accepts.
const maxBusID = 0xFE

// Options configures a simulated controller.
type Options struct {
	// Model is reported by Controller.Model.
	Model string

	// Features lists the built-in capabilities the controller has.
	Features []hardware.Feature

	// AutoOnline brings endpoints online as soon as they register.
	AutoOnline bool
}

// Controller is an in-process root processor.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Controller struct {
	model      string
	autoOnline bool
	features   map[hardware.Feature]bool

	hosts map[hardware.Transport]*Host

	mu       sync.Mutex
	embedded map[string]*Endpoint
	all      []*Endpoint
}

// NewController creates a controller with a root cresnet bus and a root IP
// table. RF and card hosts come from embedded devices when the matching
// feature is enabled.
func NewController(opts Options) *Controller {
	c := &Controller{
		model:      opts.Model,
		autoOnline: opts.AutoOnline,
		features:   make(map[hardware.Feature]bool, len(opts.Features)),
		embedded:   make(map[string]*Endpoint),
	}
	for _, f := range opts.Features {
		c.features[f] = true
	}
	if c.model == "" {
		c.model = "cp4"
	}
	c.hosts = map[hardware.Transport]*Host{
		hardware.TransportCresnet: newHost(c, "processor/cresnet", hardware.TransportCresnet, maxBusID),
		hardware.TransportIP:      newHost(c, "processor/ip", hardware.TransportIP, maxBusID),
	}
	return c
}

// Model returns the controller model name.
func (c *Controller) Model() string { return c.model }

// Supports reports whether the controller has feature f.
func (c *Controller) Supports(f hardware.Feature) bool { return c.features[f] }

// Host returns the controller's own host for transport t. The RF host is
// the internal gateway's radio and requires FeatureInternalRFGateway.
func (c *Controller) Host(t hardware.Transport) (hardware.Host, error) {
	if h, ok := c.hosts[t]; ok {
		return h, nil
	}
	if t == hardware.TransportRF {
		gw, err := c.Embedded(models.InternalRfgw)
		if err != nil {
			return nil, err
		}
		return gw.(*Endpoint).Branch(hardware.TransportRF, 1)
	}
	return nil, fmt.Errorf("%w: %s on %s", hardware.ErrNoHost, t, c.model)
}

// Embedded returns a built-in device, creating and registering it on first use.
func (c *Controller) Embedded(model string) (hardware.Endpoint, error) {
	model = strings.ToLower(model)
	spec, ok := models.Lookup(model)
	if !ok || !spec.Embedded {
		return nil, fmt.Errorf("%w: embedded %q", hardware.ErrUnknownModel, model)
	}
	if f := embeddedFeature(model); f != "" && !c.Supports(f) {
		return nil, fmt.Errorf("%w: %s", hardware.ErrNotSupported, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ep, ok := c.embedded[model]; ok {
		return ep, nil
	}

	ep := newEndpoint(c, nil, spec, 0)
	ep.registered = true
	ep.online = true
	c.embedded[model] = ep
	c.all = append(c.all, ep)
	return ep, nil
}

func embeddedFeature(model string) hardware.Feature {
	switch model {
	case models.InternalRfgw:
		return hardware.FeatureInternalRFGateway
	case models.InternalCardCage:
		return hardware.FeatureThreeSeriesCards
	default:
		return ""
	}
}

// Endpoints returns every registered endpoint, ordered by host then id.
func (c *Controller) Endpoints() []*Endpoint {
	c.mu.Lock()
	out := make([]*Endpoint, len(c.all))
	copy(out, c.all)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].hostID() != out[j].hostID() {
			return out[i].hostID() < out[j].hostID()
		}
		return out[i].id < out[j].id
	})
	return out
}

// Find returns the registered endpoint at id on the host with hostID.
func (c *Controller) Find(hostID string, id uint32) (*Endpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ep := range c.all {
		if ep.hostID() == hostID && ep.id == id {
			return ep, true
		}
	}
	return nil, false
}

func (c *Controller) track(ep *Endpoint) {
	c.mu.Lock()
	c.all = append(c.all, ep)
	c.mu.Unlock()
}

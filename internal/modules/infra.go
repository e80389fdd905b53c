package modules

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// Bridging parent descriptor types.
const (
	TypeCenCn2           = "cencn2"
	TypeCenCi31          = "cenci31"
	TypeCenCi33          = "cenci33"
	TypeInternalCardCage = "internalcardcage"
	TypeCenRfgwEx        = "cenrfgwex"
	TypeCenErfgwPoe      = "cenerfgwpoe"
	TypeCenGwExEr        = "cengwexer"
	TypeInternalGateway  = "internal"
	TypeInternalRfgw     = "internalrfgw"
)

func isCardCage(t string) bool {
	switch strings.ToLower(t) {
	case TypeCenCi31, TypeCenCi33, TypeInternalCardCage:
		return true
	}
	return false
}

// parent is a device other devices bind through. It implements
// hardware.HasBranches by delegating to its bound endpoint.
type parent struct {
	*base
	req binding.Request
}

func newParent(desc device.Descriptor, model string, req binding.Request, opts Options) *parent {
	p := &parent{base: newBase(desc, model, opts), req: req}
	p.joins = joinmap.New(standardJoins()...)
	return p
}

// PreActivate binds the parent. It has no events of its own.
func (p *parent) PreActivate(_ context.Context, env lifecycle.Env) error {
	return p.resolve(env, p.req, nil)
}

// Branches returns the number of child hosts of transport t; zero while
// unbound.
func (p *parent) Branches(t hardware.Transport) int {
	b, ok := p.Endpoint().(hardware.HasBranches)
	if !ok {
		return 0
	}
	return b.Branches(t)
}

// Branch returns the 1-based child host of transport t.
func (p *parent) Branch(t hardware.Transport, index uint32) (hardware.Host, error) {
	b, ok := p.Endpoint().(hardware.HasBranches)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, p.Key())
	}
	return b.Branch(t, index)
}

// CresnetHub adapts a CEN-CN2, which gives two cresnet branches on an IP id.
type CresnetHub struct {
	*parent
}

func newCresnetHub(desc device.Descriptor, opts Options) (Module, error) {
	return &CresnetHub{newParent(desc, models.CenCn2, binding.Request{}, opts)}, nil
}

// CardCage adapts a card cage. Cards are separate descriptors addressed by
// slot with the cage as parent; see ExpandCards.
type CardCage struct {
	*parent
	slots int
}

func newCardCage(desc device.Descriptor, opts Options) (Module, error) {
	var model string
	req := binding.Request{}
	switch strings.ToLower(desc.Type) {
	case TypeCenCi31:
		model = models.CenCi31
	case TypeCenCi33:
		model = models.CenCi33
	default:
		model = models.InternalCardCage
		req.Embedded = true
		req.Feature = hardware.FeatureThreeSeriesCards
	}

	var props cageProperties
	if err := desc.DecodeProperties(&props); err != nil {
		return nil, err
	}
	spec, _ := models.Lookup(model)
	for k := range props.Cards {
		slot, err := parseSlot(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %s cards: %w", ErrInvalidProperties, desc.Key, err)
		}
		if int(slot) > spec.Slots {
			return nil, fmt.Errorf("%w: %s has %d slots, card in slot %d", ErrInvalidProperties, desc.Key, spec.Slots, slot)
		}
	}

	return &CardCage{parent: newParent(desc, model, req, opts), slots: spec.Slots}, nil
}

// Slots returns the number of card positions.
func (c *CardCage) Slots() int { return c.slots }

// Gateway connection types.
const (
	GatewayEthernet       = "ethernet"
	GatewayEthernetShared = "ethernetShared"
	GatewayCresnet        = "cresnet"
)

type gatewayProperties struct {
	GatewayType string `yaml:"gatewayType"`
}

// RFGateway adapts an RF gateway. Remotes bind to its single RF branch.
type RFGateway struct {
	*parent
	gatewayType string
}

func newRFGateway(desc device.Descriptor, opts Options) (Module, error) {
	switch strings.ToLower(desc.Type) {
	case TypeInternalGateway, TypeInternalRfgw:
		req := binding.Request{Embedded: true, Feature: hardware.FeatureInternalRFGateway}
		return &RFGateway{parent: newParent(desc, models.InternalRfgw, req, opts), gatewayType: "internal"}, nil
	}

	var props gatewayProperties
	if err := desc.DecodeProperties(&props); err != nil {
		return nil, err
	}
	gt := props.GatewayType
	if gt == "" {
		gt = GatewayEthernet
	}

	model := strings.ToLower(desc.Type)
	switch {
	case strings.EqualFold(gt, GatewayEthernet), strings.EqualFold(gt, GatewayEthernetShared):
		if desc.Control.IPID == nil {
			return nil, fmt.Errorf("%w: %s gatewayType %s needs ip_id", ErrInvalidProperties, desc.Key, gt)
		}
	case strings.EqualFold(gt, GatewayCresnet):
		if model == models.CenGwExEr {
			return nil, fmt.Errorf("%w: %s cannot use a cresnet connection", ErrInvalidProperties, desc.Type)
		}
		if desc.Control.CresnetID == nil {
			return nil, fmt.Errorf("%w: %s gatewayType cresnet needs cresnet_id", ErrInvalidProperties, desc.Key)
		}
	default:
		return nil, fmt.Errorf("%w: %s gatewayType %q", ErrInvalidProperties, desc.Key, gt)
	}

	return &RFGateway{parent: newParent(desc, model, binding.Request{}, opts), gatewayType: gt}, nil
}

// GatewayType returns how the gateway is connected.
func (g *RFGateway) GatewayType() string { return g.gatewayType }

package modules

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// HR remote descriptor types.
const (
	TypeHr100 = "hr100"
	TypeHr150 = "hr150"
	TypeHr310 = "hr310"
)

// Remote feedback names.
const (
	FeedbackBatteryCritical = "BatteryCritical"
	FeedbackBatteryLow      = "BatteryLow"
	FeedbackBatteryVoltage  = "BatteryVoltage"
)

// remoteButtonJoinOffset is added to a button's hardware index to get its
// digital join.
const remoteButtonJoinOffset = 10

type remoteProperties struct {
	GatewayDeviceKey string `yaml:"gatewayDeviceKey"`
}

// Remote adapts an HR-series RF remote.
//
// Remotes bind at post-activation, once every gateway in the batch has
// been pre-activated, through the gateway named by gatewayDeviceKey.
// "processor" (or no key) means the controller's internal gateway.
type Remote struct {
	*base
	gateway string
	buttons []string
}

func newRemote(desc device.Descriptor, opts Options) (Module, error) {
	model := strings.ToLower(desc.Type)
	if desc.Control.RFID == nil {
		return nil, fmt.Errorf("%w: %s needs rf_id", ErrInvalidProperties, desc.Key)
	}

	var props remoteProperties
	if err := desc.DecodeProperties(&props); err != nil {
		return nil, err
	}
	gw := props.GatewayDeviceKey
	if gw == "" {
		gw = desc.Control.ParentKey
	}
	if gw == "" {
		gw = device.RootParent
	}

	r := &Remote{base: newBase(desc, model, opts), gateway: gw, buttons: models.Buttons(model)}

	r.fbs.Add(feedback.NewBool(FeedbackBatteryCritical, r.readBool(models.HrBatteryCritical)))
	r.fbs.Add(feedback.NewBool(FeedbackBatteryLow, r.readBool(models.HrBatteryLow)))
	r.fbs.Add(feedback.NewInt(FeedbackBatteryVoltage, r.readInt(models.HrBatteryVoltage)))

	entries := append(standardJoins(),
		digitalJoin(FeedbackBatteryCritical, 2, joinmap.ToBridge, "Battery critical"),
		digitalJoin(FeedbackBatteryLow, 3, joinmap.ToBridge, "Battery low"),
		analogJoin(FeedbackBatteryVoltage, 1, joinmap.ToBridge, "Battery voltage"),
	)
	for i, name := range r.buttons {
		r.fbs.Add(feedback.NewBool(name, r.readBool(name)))
		entries = append(entries, digitalJoin(name, uint32(i+1+remoteButtonJoinOffset), joinmap.ToBridge, name+" pressed")) //nolint:gosec // button count
	}
	r.joins = joinmap.New(entries...)
	return r, nil
}

// GatewayKey returns the key of the gateway the remote binds through.
func (r *Remote) GatewayKey() string { return r.gateway }

// DependsOn names the gateway so it is brought up first.
func (r *Remote) DependsOn() []string {
	if strings.EqualFold(r.gateway, device.RootParent) {
		return nil
	}
	return []string{r.gateway}
}

// BindsAtPostActivation marks the remote as bound by PostActivate.
func (r *Remote) BindsAtPostActivation() bool { return true }

// PreActivate does nothing; binding waits for post-activation.
func (r *Remote) PreActivate(context.Context, lifecycle.Env) error {
	return nil
}

// PostActivate binds the remote through its gateway.
func (r *Remote) PostActivate(_ context.Context, env lifecycle.Env) error {
	addr := device.Addressing{RFID: r.desc.Control.RFID}
	req := binding.Request{}
	if strings.EqualFold(r.gateway, device.RootParent) {
		req.Feature = hardware.FeatureInternalRFGateway
	} else {
		addr.ParentKey = r.gateway
	}

	events := eventMap{}
	events.on(models.HrBatteryCriticalEventID, FeedbackBatteryCritical)
	events.on(models.HrBatteryLowEventID, FeedbackBatteryLow)
	events.on(models.HrBatteryVoltageEventID, FeedbackBatteryVoltage)
	for i, name := range r.buttons {
		events.onIndex(models.HrButtonEventID, i+1, name)
	}
	return r.resolveAddress(env, addr, req, events)
}

// Buttons returns the remote's button names in hardware order.
func (r *Remote) Buttons() []string { return r.buttons }

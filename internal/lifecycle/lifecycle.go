package lifecycle

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

// State is a device's activation state.
type State int

// Activation states. A device that fails pre-activation stays Constructed.
const (
	Constructed State = iota
	PreActivated
	Ready
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case PreActivated:
		return "pre-activated"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Env is what activation steps may use. The registry is read-only to
// devices; the coordinator adds them.
type Env struct {
	Resolver *binding.Resolver
	Registry *device.Registry
}

// Controller returns the root controller behind the resolver.
func (e Env) Controller() hardware.Controller {
	return e.Resolver.Controller()
}

// Device is a device the coordinator can bring up.
//
// PreActivate binds hardware, builds feedbacks and subscribes to endpoint
// events. It must not depend on devices other than its declared parents.
type Device interface {
	device.Device
	PreActivate(ctx context.Context, env Env) error
}

// PostActivator is implemented by devices with setup that must wait until
// every device in the batch has been pre-activated.
type PostActivator interface {
	PostActivate(ctx context.Context, env Env) error
}

// LateBinder is implemented by devices that bind their endpoint in
// PostActivate, typically through a gateway that must be up first. Such a
// device stays Constructed and unregistered after pre-activation; it is
// registered and made Ready only when PostActivate succeeds.
type LateBinder interface {
	BindsAtPostActivation() bool
}

func bindsLate(d Device) bool {
	lb, ok := d.(LateBinder)
	return ok && lb.BindsAtPostActivation()
}

// Dependent is implemented by devices that must pre-activate after other
// devices in the same batch (usually their parent).
type Dependent interface {
	DependsOn() []string
}

// WhenOnline runs fn on every transition of sig to online. If sig is
// already online, fn also runs once, synchronously, before WhenOnline
// returns. fn must tolerate being called repeatedly.
func WhenOnline(sig hardware.HasOnlineSignal, fn func()) {
	sig.OnOnlineChange(func(online bool) {
		if online {
			fn()
		}
	})
	if sig.IsOnline() {
		fn()
	}
}

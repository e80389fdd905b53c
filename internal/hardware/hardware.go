package hardware

import "fmt"

// Transport identifies the bus a device's traffic travels over.
type Transport string

// Transport kinds.
const (
	TransportCresnet  Transport = "cresnet"
	TransportIP       Transport = "ip"
	TransportRF       Transport = "rf"
	TransportCardSlot Transport = "cardslot"
)

// Valid reports whether t is a known transport.
func (t Transport) Valid() bool {
	switch t {
	case TransportCresnet, TransportIP, TransportRF, TransportCardSlot:
		return true
	}
	return false
}

// Feature is a built-in capability the root controller may or may not have.
type Feature string

// Controller features.
const (
	FeatureInternalRFGateway Feature = "internal_rf_gateway"
	FeatureThreeSeriesCards  Feature = "three_series_cards"
)

// EventID identifies a hardware event raised by an endpoint.
type EventID int

// Event is a notification from an endpoint. Index distinguishes repeated
// points (port 3 of 8, button 5 of 12); it is zero for singular points.
type Event struct {
	ID    EventID
	Index uint32
}

func (e Event) String() string {
	return fmt.Sprintf("event(%d/%d)", e.ID, e.Index)
}

// PointKind is the value type of a hardware point.
type PointKind int

// Point kinds.
const (
	PointBool PointKind = iota
	PointInt
	PointString
)

func (k PointKind) String() string {
	switch k {
	case PointBool:
		return "bool"
	case PointInt:
		return "int"
	case PointString:
		return "string"
	default:
		return fmt.Sprintf("PointKind(%d)", int(k))
	}
}

// HasOnlineSignal is implemented by anything that reports reachability.
//
// OnOnlineChange handlers are invoked on the notifier's goroutine; they
// must not block.
type HasOnlineSignal interface {
	IsOnline() bool
	OnOnlineChange(fn func(online bool))
}

// PointReader reads typed points by name. Unknown points read as the zero value.
type PointReader interface {
	Bool(point string) bool
	Int(point string) int
	String(point string) string
}

// PointWriter writes typed points and invokes one-shot commands.
type PointWriter interface {
	SetBool(point string, v bool) error
	SetInt(point string, v int) error
	SetString(point string, v string) error
	Invoke(command string) error
}

// HasPoints is the typed point surface of an endpoint.
type HasPoints interface {
	PointReader
	PointWriter
}

// HasBranches is implemented by bridging parents (hubs, gateways, card
// cages). Branches returns how many branches of transport t exist; zero
// means the parent cannot carry that transport. Branch indices start at 1.
type HasBranches interface {
	Branches(t Transport) int
	Branch(t Transport, index uint32) (Host, error)
}

// Host is a bus segment that endpoints can be attached to: the controller's
// own bus, a hub branch, an RF gateway or a card slot.
type Host interface {
	HostID() string
	Transport() Transport

	// Attach constructs an unregistered endpoint for model at id. Traffic
	// does not flow until the endpoint is registered.
	Attach(model string, id uint32) (Endpoint, error)
}

// Endpoint is the bound physical handle of a device.
type Endpoint interface {
	HasOnlineSignal
	HasPoints

	ID() uint32
	Model() string
	Host() Host

	// Register activates the endpoint on its host. Online and event
	// notifications start after a successful Register.
	Register() error
	Registered() bool

	// OnEvent subscribes to hardware events.
	OnEvent(fn func(Event))
}

// Controller is the root processor. Devices with no parent bind against it.
type Controller interface {
	Model() string
	Supports(f Feature) bool

	// Host returns the controller's own host for transport t.
	Host(t Transport) (Host, error)

	// Embedded returns a built-in device (internal RF gateway, card cage).
	// Embedded endpoints are registered by the platform.
	Embedded(model string) (Endpoint, error)
}

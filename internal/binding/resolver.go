package binding

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Request says what to bind.
type Request struct {
	// Model is the hardware model to attach.
	Model string

	// Feature, when set, must be supported by the root controller. It is
	// checked before anything else so unsupported devices fail fast.
	Feature hardware.Feature

	// Embedded binds a built-in controller device instead of attaching by id.
	Embedded bool
}

// Resolver binds device descriptors to endpoints. It reads the registry to
// find bridging parents and never writes to it.
//
// Thread Safety:
//   - Resolve is safe for concurrent use as long as the registry is.
type Resolver struct {
	ctrl     hardware.Controller
	registry *device.Registry
	logger   Logger
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(ctrl hardware.Controller, registry *device.Registry, logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{ctrl: ctrl, registry: registry, logger: logger}
}

// Controller returns the root controller.
func (r *Resolver) Controller() hardware.Controller { return r.ctrl }

// Resolve binds desc using its own addressing block.
func (r *Resolver) Resolve(desc device.Descriptor, req Request) (hardware.Endpoint, error) {
	return r.ResolveAddress(desc.Key, desc.Control, req)
}

// ResolveAddress binds using addr on behalf of the device with key.
//
// The returned endpoint is registered; its online and event notifications
// are live. Any failure is logged with the device key and returned; the
// caller must treat the device as unbound.
func (r *Resolver) ResolveAddress(key string, addr device.Addressing, req Request) (hardware.Endpoint, error) {
	ep, host, err := r.resolve(addr, req)
	if err != nil {
		err = fmt.Errorf("resolving %s: %w", key, err)
		r.logger.Error("device binding failed",
			"device", key,
			"model", req.Model,
			"parent", addr.ParentKey,
			"reason", reason(err),
			"error", err,
		)
		return nil, err
	}

	r.logger.Info("device bound",
		"device", key,
		"model", ep.Model(),
		"host", host,
		"id", ep.ID(),
		"online", ep.IsOnline(),
	)
	return ep, nil
}

func (r *Resolver) resolve(addr device.Addressing, req Request) (hardware.Endpoint, string, error) {
	if req.Feature != "" && !r.ctrl.Supports(req.Feature) {
		return nil, "", fmt.Errorf("%w: %s needs %s on %s", ErrUnsupportedOnPlatform, req.Model, req.Feature, r.ctrl.Model())
	}

	if req.Embedded {
		ep, err := r.ctrl.Embedded(req.Model)
		if err != nil {
			if errors.Is(err, hardware.ErrNotSupported) {
				return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedOnPlatform, err)
			}
			return nil, "", fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
		}
		return ep, "processor", nil
	}

	t, id, err := addr.Endpoint()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	host, err := r.host(addr, t)
	if err != nil {
		return nil, "", err
	}

	ep, err := host.Attach(req.Model, id)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}
	if err := ep.Register(); err != nil {
		return nil, "", fmt.Errorf("%w: %s id %d on %s: %w", ErrRegistrationFailed, req.Model, id, host.HostID(), err)
	}
	return ep, host.HostID(), nil
}

// host finds the bus segment to attach to: the controller's own host for
// root devices, otherwise the parent's branch.
func (r *Resolver) host(addr device.Addressing, t hardware.Transport) (hardware.Host, error) {
	if addr.IsRoot() {
		if t == hardware.TransportRF && !r.ctrl.Supports(hardware.FeatureInternalRFGateway) {
			return nil, fmt.Errorf("%w: no internal RF gateway on %s", ErrUnsupportedOnPlatform, r.ctrl.Model())
		}
		h, err := r.ctrl.Host(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return h, nil
	}

	parent, ok := r.registry.Lookup(addr.ParentKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParentNotFound, addr.ParentKey)
	}

	branches, ok := parent.(hardware.HasBranches)
	if !ok || branches.Branches(t) == 0 {
		return nil, fmt.Errorf("%w: %q has no %s branches", ErrParentIncapable, addr.ParentKey, t)
	}

	index := addr.Branch()
	if int(index) > branches.Branches(t) {
		return nil, fmt.Errorf("%w: %q %s branch %d of %d", ErrBranchNotFound, addr.ParentKey, t, index, branches.Branches(t))
	}

	h, err := branches.Branch(t, index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBranchNotFound, err)
	}
	return h, nil
}

// reason names the resolution error kind for log fields.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrParentNotFound):
		return "ParentNotFound"
	case errors.Is(err, ErrParentIncapable):
		return "ParentIncapable"
	case errors.Is(err, ErrBranchNotFound):
		return "BranchNotFound"
	case errors.Is(err, ErrUnsupportedOnPlatform):
		return "UnsupportedOnPlatform"
	case errors.Is(err, ErrRegistrationFailed):
		return "RegistrationFailed"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	default:
		return "Unknown"
	}
}

// Reason returns the short name of a resolution error, for reports.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return reason(err)
}

package modules

import "errors"

// Domain errors for the adapter catalogue.
var (
	// ErrUnknownType is returned when no factory is registered for a
	// descriptor's type.
	ErrUnknownType = errors.New("modules: unknown device type")

	// ErrDuplicateType is returned when two factories claim the same type.
	ErrDuplicateType = errors.New("modules: type already registered")

	// ErrInvalidProperties is returned when a descriptor's properties or
	// addressing do not suit its adapter.
	ErrInvalidProperties = errors.New("modules: invalid properties")

	// ErrNotBound is returned by operations that need hardware when the
	// device has no endpoint.
	ErrNotBound = errors.New("modules: device not bound")

	// ErrNotInTestMode is returned when test values are set outside test mode.
	ErrNotInTestMode = errors.New("modules: device not in test mode")
)

package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device key does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when adding a device whose key is already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when a descriptor fails validation.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidAddress is returned when an addressing block is inconsistent.
	ErrInvalidAddress = errors.New("device: invalid address")
)

package binding

import "errors"

// Resolution errors. Each is fatal to the binding of one device only.
var (
	// ErrParentNotFound is returned when parent_key names no registered device.
	ErrParentNotFound = errors.New("binding: parent not found")

	// ErrParentIncapable is returned when the parent cannot provide
	// branches of the device's transport.
	ErrParentIncapable = errors.New("binding: parent lacks branch capability")

	// ErrBranchNotFound is returned when branch_index exceeds the parent's branches.
	ErrBranchNotFound = errors.New("binding: branch not found")

	// ErrUnsupportedOnPlatform is returned when the root controller lacks a
	// built-in capability the device needs.
	ErrUnsupportedOnPlatform = errors.New("binding: unsupported on this controller")

	// ErrRegistrationFailed is returned when the platform refuses the endpoint.
	ErrRegistrationFailed = errors.New("binding: registration failed")

	// ErrInvalidAddress is returned when the addressing block cannot be bound.
	ErrInvalidAddress = errors.New("binding: invalid address")
)

package hardware

import "errors"

// Domain-specific errors for hardware hosts and endpoints.
var (
	// ErrNoHost is returned when a controller has no host for a transport.
	ErrNoHost = errors.New("hardware: no host for transport")

	// ErrNoBranch is returned when a branch index does not exist.
	ErrNoBranch = errors.New("hardware: branch not found")

	// ErrUnknownModel is returned when a host cannot build the requested model.
	ErrUnknownModel = errors.New("hardware: unknown model")

	// ErrInvalidID is returned when an endpoint id is out of range.
	ErrInvalidID = errors.New("hardware: invalid id")

	// ErrIDInUse is returned when registering an id already taken on a host.
	ErrIDInUse = errors.New("hardware: id already registered")

	// ErrNotRegistered is returned when writing to an unregistered endpoint.
	ErrNotRegistered = errors.New("hardware: endpoint not registered")

	// ErrUnknownPoint is returned for writes to a point the model lacks.
	ErrUnknownPoint = errors.New("hardware: unknown point")

	// ErrReadOnly is returned for writes to an input-only point.
	ErrReadOnly = errors.New("hardware: point is read-only")

	// ErrNotSupported is returned when a controller lacks a feature.
	ErrNotSupported = errors.New("hardware: not supported on this controller")
)

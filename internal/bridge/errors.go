package bridge

import "errors"

// Domain errors for bridge linking and transports.
var (
	// ErrJoinTypeMismatch is reported when a feedback or action kind does not
	// match its join's signal type. Only that one link is skipped.
	ErrJoinTypeMismatch = errors.New("bridge: join type mismatch")

	// ErrDeviceUnbound is returned when linking a device that has no
	// endpoint. Such devices stay inert.
	ErrDeviceUnbound = errors.New("bridge: device has no bound endpoint")

	// ErrAlreadyLinked is returned when a device is linked to the same
	// bridge twice.
	ErrAlreadyLinked = errors.New("bridge: device already linked to bridge")

	// ErrUnknownSignal is returned for a signal type name that is not
	// digital, analog or serial.
	ErrUnknownSignal = errors.New("bridge: unknown signal type")

	// ErrUnknownCodec is returned for an unsupported payload codec name.
	ErrUnknownCodec = errors.New("bridge: unknown codec")

	// ErrInvalidPayload is returned when an inbound payload cannot be decoded
	// for its join type.
	ErrInvalidPayload = errors.New("bridge: invalid payload")
)

package joinmap

import "errors"

// Domain errors for join map handling.
var (
	// ErrOverrideInvalid is reported when a serialized override cannot be
	// used. The default map is used instead.
	ErrOverrideInvalid = errors.New("joinmap: override invalid")

	// ErrOverrideNotFound is returned by stores that hold no override for a key.
	ErrOverrideNotFound = errors.New("joinmap: override not found")
)

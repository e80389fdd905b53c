package feedback

import "errors"

// ErrUnknownKey is returned when a feedback key is not in a collection.
var ErrUnknownKey = errors.New("feedback: unknown key")

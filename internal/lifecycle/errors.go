package lifecycle

import "errors"

// ErrDuplicateDevice is returned when the same key is added to a coordinator twice.
var ErrDuplicateDevice = errors.New("lifecycle: duplicate device")

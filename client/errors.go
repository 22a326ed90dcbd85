package client

import "errors"

// ErrNotFound is returned when the target record does not exist on the
// server. Callers compare with errors.Is.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

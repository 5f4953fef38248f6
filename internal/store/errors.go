package store

import "errors"

// ErrNotFound is returned when the referenced record does not exist.
// Handlers translate it into a 404 before any generic error mapping.
var ErrNotFound = errors.New("not found")

package storage

import "errors"

// ErrInvalidInput is returned when a record fails validation before insert.
var ErrInvalidInput = errors.New("invalid input")

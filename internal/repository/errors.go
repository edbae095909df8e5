package repository

import "errors"

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates the record violates a uniqueness constraint.
var ErrConflict = errors.New("repository: conflict")

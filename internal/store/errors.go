package store

import "errors"

var (
	// ErrNotFound is returned when an update or lookup targets an id that
	// does not exist. Deletes of missing ids are idempotent no-ops instead.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned when a payload fails validation or would
	// violate a task flag invariant. Nothing is persisted in that case.
	ErrInvalidInput = errors.New("invalid input")
)

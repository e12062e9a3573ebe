package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownResolver is returned for an unrecognized water:// host.
	ErrUnknownResolver = errors.New("unknown resolver kind")
	// ErrUnknownStatus is returned for a status outside the review vocabulary.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrSchemaConflict is returned when flattening a schema produces duplicate
	// property names.
	ErrSchemaConflict = errors.New("schema property name conflict")
	// ErrVersionConflict is returned when an action-log write loses its
	// optimistic-concurrency check.
	ErrVersionConflict = errors.New("version conflict")
)

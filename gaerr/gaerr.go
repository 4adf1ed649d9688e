// Package gaerr defines the sentinel error kinds raised across genflow's
// components (spec §7). Components wrap one of these with fmt.Errorf's
// %w verb so callers can test the kind with errors.Is while still getting
// a contextual message.
package gaerr

import "errors"

var (
	// ErrNullArgument indicates a mandatory collaborator is absent at an API boundary.
	ErrNullArgument = errors.New("gaerr: null argument")

	// ErrInvalidOperation indicates an operation on a wrongly-staged object.
	ErrInvalidOperation = errors.New("gaerr: invalid operation")

	// ErrArgumentOutOfRange indicates a size, index, or probability outside the admissible range.
	ErrArgumentOutOfRange = errors.New("gaerr: argument out of range")

	// ErrFull indicates a fixed-size container refused an insertion.
	ErrFull = errors.New("gaerr: container full")

	// ErrDuplicate indicates a data-store id already exists in its scope.
	ErrDuplicate = errors.New("gaerr: duplicate key")

	// ErrNotFound indicates a data-store id does not exist in its scope.
	ErrNotFound = errors.New("gaerr: not found")

	// ErrTypeMismatch indicates a data-store value was not of the requested type.
	ErrTypeMismatch = errors.New("gaerr: type mismatch")

	// ErrOperationFailure indicates an operator could not produce a result.
	ErrOperationFailure = errors.New("gaerr: operation failure")

	// ErrCancelled indicates the branch scheduler observed a stop request.
	ErrCancelled = errors.New("gaerr: cancelled")
)

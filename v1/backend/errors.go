package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrTranslation marks a canonical construct the target engine cannot
	// express (an unsupported operator, boolean shape, metric, or element
	// type). The predicate is rejected, never silently dropped; recover by
	// rewriting the query for that engine's capability subset.
	ErrTranslation = errors.New("backend: expression not supported by engine")

	// ErrBackend wraps a transport- or engine-reported failure, annotated
	// with the operation and collection that were in flight.
	ErrBackend = errors.New("backend: engine operation failed")
)

// IsTranslationError reports whether err stems from an engine capability gap.
func IsTranslationError(err error) bool { return errors.Is(err, ErrTranslation) }

// IsBackendError reports whether err stems from the engine or transport.
func IsBackendError(err error) bool { return errors.Is(err, ErrBackend) }

// OperationError annotates an engine failure with the operation and
// collection in flight. It matches ErrBackend under errors.Is and exposes
// the engine's own error unmodified through Unwrap.
type OperationError struct {
	Op         string
	Collection string
	Err        error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("backend: %s on %q: %v", e.Op, e.Collection, e.Err)
}

func (e *OperationError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// NewOperationError wraps an engine error with operation context.
func NewOperationError(op, collection string, err error) *OperationError {
	return &OperationError{Op: op, Collection: collection, Err: err}
}

// BatchError reports a batch insert that aborted part-way: Completed
// instances were confirmed before the failing chunk. Partial progress is
// surfaced, never silently swallowed.
type BatchError struct {
	Collection string
	Completed  int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("backend: batch insert on %q aborted after %d rows: %v",
		e.Collection, e.Completed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

package observability

import "time"

// OperationContext describes one completed backend operation for metrics
// and tracing sinks.
type OperationContext struct {
	// Component is the adapter that performed the operation, e.g. "milvus".
	Component string

	// Operation is the logical operation name, e.g. "insert", "execute".
	Operation string

	// Collection is the target collection.
	Collection string

	// Duration is the wall-clock time of the call.
	Duration time.Duration

	// Error is the operation error, nil on success.
	Error error

	// Size is an operation-specific count: rows inserted, results
	// returned, ids deleted.
	Size int64
}

// Observer receives operation notifications. Implementations must be safe
// for concurrent use; adapters call them from whatever goroutine performed
// the operation.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

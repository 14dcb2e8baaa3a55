package backend

import (
	"context"

	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

// Progress is the injected progress sink for batch inserts. It receives a
// monotonically increasing completed count plus the total; rendering is
// entirely the sink's concern. Implementations must tolerate being called
// from whichever goroutine finishes a chunk.
type Progress func(completed, total int)

// Adapter is the capability interface one engine implements: it translates
// the canonical schema into engine-native collection/index definitions,
// compiles expression trees into the engine's filter grammar, executes,
// and decodes rows back into schema instances.
//
// All methods are blocking I/O from the caller's perspective and safe to
// invoke concurrently from independent callers. An adapter moves a
// collection to ready via CreateCollection (or an internal existence
// check); whether creation is idempotent is engine-specific and documented
// per adapter.
type Adapter interface {
	query.Executor

	// CreateCollection issues engine-native collection and index creation
	// for the schema. Engines that cannot represent the schema (e.g. no
	// binary vector support) fail with ErrTranslation.
	CreateCollection(ctx context.Context, sch *schema.Schema) error

	// DropCollection removes the collection and its data.
	DropCollection(ctx context.Context, sch *schema.Schema) error

	// ClearCollection removes every row but keeps the collection servable.
	// Engines without a delete-all primitive drop and recreate it.
	ClearCollection(ctx context.Context, sch *schema.Schema) error

	// Insert stores one instance and returns a copy with the primary key
	// populated. Already-keyed instances and unset non-default fields fail
	// with a validation error before any network call.
	Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error)

	// InsertBatch stores instances in engine-sized chunks, invoking the
	// optional progress sink as chunks complete. On failure the returned
	// error carries how many instances were confirmed before the abort
	// (see BatchError); the returned slice holds keyed copies for the
	// confirmed prefix.
	InsertBatch(ctx context.Context, insts []*schema.Instance, progress Progress) ([]*schema.Instance, error)

	// Delete removes rows by primary key.
	Delete(ctx context.Context, sch *schema.Schema, ids ...int64) error

	// Flush makes recent writes durable/visible where the engine separates
	// ingestion from visibility; a no-op elsewhere.
	Flush(ctx context.Context, sch *schema.Schema) error

	// Load makes the collection servable for queries where the engine
	// requires an explicit load; a no-op elsewhere.
	Load(ctx context.Context, sch *schema.Schema) error
}

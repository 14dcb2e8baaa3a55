package session

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

const tracerName = "github.com/piercefreeman/vectordb-orm/v1/session"

// Session is the single entry point applications talk to: it binds one
// backend adapter to the schema and query layers, and wraps every
// operation with logging and tracing. A Session is cheap and safe to
// share across goroutines; the adapter carries all connection state.
type Session struct {
	adapter backend.Adapter
	logger  *zap.Logger
	tracer  trace.Tracer
}

// Option customises session construction.
type Option func(*Session)

// WithLogger attaches a zap logger; defaults to zap.NewNop().
func WithLogger(zl *zap.Logger) Option {
	return func(s *Session) { s.logger = zl }
}

// WithTracerProvider sources spans from the given provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) { s.tracer = tp.Tracer(tracerName) }
}

// New binds a session to a backend adapter.
func New(adapter backend.Adapter, opts ...Option) *Session {
	s := &Session{
		adapter: adapter,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adapter exposes the bound adapter for callers that need engine-specific
// behaviour.
func (s *Session) Adapter() backend.Adapter { return s.adapter }

// Query opens a fluent query against a schema on this session's adapter.
func (s *Session) Query(sch *schema.Schema) *query.Builder {
	return query.New(s.adapter, sch)
}

// CreateCollection materialises the schema's collection on the engine.
func (s *Session) CreateCollection(ctx context.Context, sch *schema.Schema) error {
	ctx, span := s.startSpan(ctx, "create_collection", sch.Collection())
	defer span.End()

	err := s.adapter.CreateCollection(ctx, sch)
	s.finish(span, "create_collection", sch.Collection(), err)
	return err
}

// DropCollection removes the schema's collection and its data.
func (s *Session) DropCollection(ctx context.Context, sch *schema.Schema) error {
	ctx, span := s.startSpan(ctx, "drop_collection", sch.Collection())
	defer span.End()

	err := s.adapter.DropCollection(ctx, sch)
	s.finish(span, "drop_collection", sch.Collection(), err)
	return err
}

// ClearCollection removes every row but keeps the collection servable.
func (s *Session) ClearCollection(ctx context.Context, sch *schema.Schema) error {
	ctx, span := s.startSpan(ctx, "clear_collection", sch.Collection())
	defer span.End()

	err := s.adapter.ClearCollection(ctx, sch)
	s.finish(span, "clear_collection", sch.Collection(), err)
	return err
}

// Insert stores one instance and returns a keyed copy.
func (s *Session) Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error) {
	ctx, span := s.startSpan(ctx, "insert", inst.Schema().Collection())
	defer span.End()

	keyed, err := s.adapter.Insert(ctx, inst)
	s.finish(span, "insert", inst.Schema().Collection(), err)
	return keyed, err
}

// InsertBatch stores instances in chunks, reporting progress through the
// optional callback. On partial failure the returned error is a
// backend.BatchError carrying how many rows were confirmed.
func (s *Session) InsertBatch(ctx context.Context, insts []*schema.Instance, progress backend.Progress) ([]*schema.Instance, error) {
	if len(insts) == 0 {
		return nil, nil
	}
	collection := insts[0].Schema().Collection()
	ctx, span := s.startSpan(ctx, "insert_batch", collection,
		attribute.Int("batch.size", len(insts)))
	defer span.End()

	keyed, err := s.adapter.InsertBatch(ctx, insts, progress)
	s.finish(span, "insert_batch", collection, err)
	return keyed, err
}

// Delete removes rows by primary key.
func (s *Session) Delete(ctx context.Context, sch *schema.Schema, ids ...int64) error {
	ctx, span := s.startSpan(ctx, "delete", sch.Collection(),
		attribute.Int("delete.count", len(ids)))
	defer span.End()

	err := s.adapter.Delete(ctx, sch, ids...)
	s.finish(span, "delete", sch.Collection(), err)
	return err
}

// Flush seals recent writes on engines that buffer them.
func (s *Session) Flush(ctx context.Context, sch *schema.Schema) error {
	ctx, span := s.startSpan(ctx, "flush", sch.Collection())
	defer span.End()

	err := s.adapter.Flush(ctx, sch)
	s.finish(span, "flush", sch.Collection(), err)
	return err
}

// Load makes the collection servable on engines that require an explicit
// load step.
func (s *Session) Load(ctx context.Context, sch *schema.Schema) error {
	ctx, span := s.startSpan(ctx, "load", sch.Collection())
	defer span.End()

	err := s.adapter.Load(ctx, sch)
	s.finish(span, "load", sch.Collection(), err)
	return err
}

func (s *Session) startSpan(ctx context.Context, op, collection string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", op),
		attribute.String("db.collection", collection),
	)
	return s.tracer.Start(ctx, "vectordb."+op, trace.WithAttributes(attrs...))
}

func (s *Session) finish(span trace.Span, op, collection string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("operation failed",
			zap.String("operation", op),
			zap.String("collection", collection),
			zap.Error(err))
		return
	}
	s.logger.Debug("operation completed",
		zap.String("operation", op),
		zap.String("collection", collection))
}

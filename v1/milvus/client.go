package milvus

import (
	"context"
	"fmt"
	"sync"
	"time"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// Adapter implements backend.Adapter on a Milvus deployment. Milvus is a
// clustered-index engine with a full boolean expression grammar, so the
// whole comparison-operator surface compiles; its consistency window is
// governed by the configured ConsistencyLevel, and writes become visible
// after Flush.
//
// CreateCollection is idempotent: an existing collection is left untouched.
type Adapter struct {
	api      milvusclient.Client
	cfg      *Config
	logger   *zap.Logger
	observer observability.Observer

	mu    sync.Mutex
	ready map[string]struct{}
}

// Option customises adapter construction.
type Option func(*Adapter)

// WithLogger attaches a zap logger; defaults to zap.NewNop().
func WithLogger(zl *zap.Logger) Option {
	return func(a *Adapter) { a.logger = zl }
}

// WithObserver attaches an operation observer.
func WithObserver(o observability.Observer) Option {
	return func(a *Adapter) { a.observer = o }
}

// NewAdapter connects to Milvus and returns the adapter. The SDK dials
// eagerly, so an unreachable deployment fails here rather than on first use.
func NewAdapter(ctx context.Context, cfg *Config, opts ...Option) (*Adapter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	api, err := milvusclient.NewClient(ctx, milvusclient.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("milvus: failed to connect to %s: %w", cfg.Address, err)
	}

	a := newAdapter(api, cfg, opts...)
	a.logger.Info("milvus client connected", zap.String("address", cfg.Address))
	return a, nil
}

// newAdapter wraps an already-connected client; tests inject fakes here.
func newAdapter(api milvusclient.Client, cfg *Config, opts ...Option) *Adapter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Adapter{
		api:    api,
		cfg:    cfg,
		logger: zap.NewNop(),
		ready:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.api.Close()
}

// opContext applies the configured default deadline when the caller's
// context carries none.
func (a *Adapter) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || a.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

func (a *Adapter) observe(op, collection string, start time.Time, err error, size int64) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveOperation(observability.OperationContext{
		Component:  "milvus",
		Operation:  op,
		Collection: collection,
		Duration:   time.Since(start),
		Error:      err,
		Size:       size,
	})
}

// markReady records that a collection is known to exist.
func (a *Adapter) markReady(collection string) {
	a.mu.Lock()
	a.ready[collection] = struct{}{}
	a.mu.Unlock()
}

// ensureReady verifies the collection exists, checking the engine once and
// caching the answer. Operations other than CreateCollection require a
// ready collection.
func (a *Adapter) ensureReady(ctx context.Context, collection string) error {
	a.mu.Lock()
	_, ok := a.ready[collection]
	a.mu.Unlock()
	if ok {
		return nil
	}

	exists, err := a.api.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("milvus: existence check for %q: %w", collection, err)
	}
	if !exists {
		return fmt.Errorf("milvus: collection %q does not exist, create it first", collection)
	}
	a.markReady(collection)
	return nil
}

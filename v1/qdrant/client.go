package qdrant

import (
	"context"
	"fmt"
	"sync"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// Adapter implements backend.Adapter on a Qdrant deployment. Qdrant is a
// managed similarity engine with structured must/should/must_not filters:
// the full comparison surface compiles, but only float vectors with L2, IP
// or cosine metrics are representable, the distance metric is fixed per
// collection, and primary keys are derived client-side from UUIDs because
// the engine requires caller-supplied point IDs.
//
// CreateCollection is idempotent: an existing collection is left untouched.
type Adapter struct {
	api      *qdrant.Client
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

// NewAdapter connects to Qdrant and validates connectivity with an
// immediate health check, failing fast if the service is unreachable.
func NewAdapter(cfg *Config, opts ...Option) (*Adapter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	api, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Endpoint,
		Port:                   port,
		APIKey:                 cfg.ApiKey,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to initialize client: %w", err)
	}

	a := newAdapter(api, cfg, opts...)
	if err := a.healthCheck(); err != nil {
		return nil, err
	}
	a.logger.Info("qdrant client connected",
		zap.String("endpoint", cfg.Endpoint), zap.Int("port", port))
	return a, nil
}

// newAdapter wraps an existing client; tests exercising the converters and
// the integration suite inject through here.
func newAdapter(api *qdrant.Client, cfg *Config, opts ...Option) *Adapter {
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

func (a *Adapter) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := a.api.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.api.Close()
}

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
		Component:  "qdrant",
		Operation:  op,
		Collection: collection,
		Duration:   time.Since(start),
		Error:      err,
		Size:       size,
	})
}

func (a *Adapter) markReady(collection string) {
	a.mu.Lock()
	a.ready[collection] = struct{}{}
	a.mu.Unlock()
}

func (a *Adapter) ensureReady(ctx context.Context, collection string) error {
	a.mu.Lock()
	_, ok := a.ready[collection]
	a.mu.Unlock()
	if ok {
		return nil
	}

	exists, err := a.api.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("qdrant: existence check for %q: %w", collection, err)
	}
	if !exists {
		return fmt.Errorf("qdrant: collection %q does not exist, create it first", collection)
	}
	a.markReady(collection)
	return nil
}

package chromem

import (
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// Adapter implements backend.Adapter on an embedded chromem-go store.
// chromem is the most constrained engine in the set: cosine similarity
// only, one float vector per schema, exhaustive search without index
// structures, and metadata filters limited to a flat AND of equality
// comparisons. Anything outside that subset fails translation rather
// than returning silently wrong results.
//
// There is no server: the store lives in-process, optionally persisted
// to a directory, which makes the adapter handy for tests and small
// deployments.
type Adapter struct {
	db       *chromem.DB
	cfg      *Config
	logger   *zap.Logger
	observer observability.Observer

	mu          sync.Mutex
	collections map[string]*chromem.Collection
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

// NewAdapter opens the embedded store, persisting to cfg.Path when one is
// set and running purely in-memory otherwise.
func NewAdapter(cfg *Config, opts ...Option) (*Adapter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var db *chromem.DB
	if cfg.Path != "" {
		persistent, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: failed to open store at %q: %w", cfg.Path, err)
		}
		db = persistent
	} else {
		db = chromem.NewDB()
	}

	a := newAdapter(db, cfg, opts...)
	a.logger.Info("chromem store opened",
		zap.String("path", cfg.Path), zap.Bool("persistent", cfg.Path != ""))
	return a, nil
}

func newAdapter(db *chromem.DB, cfg *Config, opts ...Option) *Adapter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Adapter{
		db:          db,
		cfg:         cfg,
		logger:      zap.NewNop(),
		collections: make(map[string]*chromem.Collection),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the adapter. The embedded store has no connection to
// tear down; persisted state is already on disk.
func (a *Adapter) Close() error { return nil }

func (a *Adapter) observe(op, collection string, start time.Time, err error, size int64) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveOperation(observability.OperationContext{
		Component:  "chromem",
		Operation:  op,
		Collection: collection,
		Duration:   time.Since(start),
		Error:      err,
		Size:       size,
	})
}

// collection returns the cached handle for a previously created
// collection.
func (a *Adapter) collection(name string) (*chromem.Collection, error) {
	a.mu.Lock()
	col, ok := a.collections[name]
	a.mu.Unlock()
	if !ok {
		if col = a.db.GetCollection(name, nil); col == nil {
			return nil, fmt.Errorf("chromem: collection %q does not exist, create it first", name)
		}
		a.mu.Lock()
		a.collections[name] = col
		a.mu.Unlock()
	}
	return col, nil
}

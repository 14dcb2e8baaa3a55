package milvus

import (
	"context"
	"fmt"
	"time"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

var _ backend.Adapter = (*Adapter)(nil)

// CreateCollection creates the collection and one index per vector field.
// Safe to call repeatedly: an existing collection is left untouched.
func (a *Adapter) CreateCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("create_collection", sch.Collection(), start, err, 0) }()

	exists, err := a.api.HasCollection(ctx, sch.Collection())
	if err != nil {
		return backend.NewOperationError("create_collection", sch.Collection(), err)
	}
	if exists {
		a.logger.Debug("collection already exists", zap.String("collection", sch.Collection()))
		a.markReady(sch.Collection())
		return nil
	}

	ms, err := buildCollectionSchema(sch)
	if err != nil {
		return err
	}
	if err = a.api.CreateCollection(ctx, ms, 1); err != nil {
		return backend.NewOperationError("create_collection", sch.Collection(), err)
	}

	for _, f := range sch.VectorFields() {
		cfg, _ := f.Spec().Index()
		idx, ierr := buildIndex(cfg)
		if ierr != nil {
			return ierr
		}
		if err = a.api.CreateIndex(ctx, sch.Collection(), f.Name(), idx, false,
			milvusclient.WithIndexName(f.Name()+"_idx")); err != nil {
			return backend.NewOperationError("create_index", sch.Collection(), err)
		}
	}

	a.markReady(sch.Collection())
	a.logger.Info("collection created",
		zap.String("collection", sch.Collection()),
		zap.Int("vector_fields", len(sch.VectorFields())))
	return nil
}

// DropCollection removes the collection and its data.
func (a *Adapter) DropCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("drop_collection", sch.Collection(), start, err, 0) }()

	if err = a.api.DropCollection(ctx, sch.Collection()); err != nil {
		return backend.NewOperationError("drop_collection", sch.Collection(), err)
	}
	a.mu.Lock()
	delete(a.ready, sch.Collection())
	a.mu.Unlock()
	return nil
}

// ClearCollection empties the collection by dropping and recreating it.
// Milvus deletes rows only by explicit primary keys, so a rebuild is the
// cheapest way to remove all of them.
func (a *Adapter) ClearCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("clear_collection", sch.Collection(), start, err, 0) }()

	if err = a.api.DropCollection(ctx, sch.Collection()); err != nil {
		return backend.NewOperationError("clear_collection", sch.Collection(), err)
	}
	a.mu.Lock()
	delete(a.ready, sch.Collection())
	a.mu.Unlock()
	return a.CreateCollection(ctx, sch)
}

// Insert stores one instance and returns a keyed copy. Milvus assigns the
// int64 primary key server-side (auto-ID).
func (a *Adapter) Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error) {
	keyed, err := a.insertRange(ctx, inst.Schema(), []*schema.Instance{inst})
	if err != nil {
		return nil, err
	}
	return keyed[0], nil
}

// InsertBatch stores instances through the bulk path in config-sized
// chunks with bounded parallelism. Partial failures surface as a
// BatchError carrying the confirmed prefix.
func (a *Adapter) InsertBatch(ctx context.Context, insts []*schema.Instance, progress backend.Progress) ([]*schema.Instance, error) {
	if len(insts) == 0 {
		return nil, nil
	}
	sch := insts[0].Schema()

	keyed := make([]*schema.Instance, len(insts))
	completed, err := backend.RunChunks(ctx, len(insts), a.cfg.BatchSize, a.cfg.BatchParallelism,
		func(ctx context.Context, start, end int) error {
			rows, rerr := a.insertRange(ctx, sch, insts[start:end])
			if rerr != nil {
				return rerr
			}
			copy(keyed[start:end], rows)
			return nil
		}, progress)
	if err != nil {
		return keyed[:completed], &backend.BatchError{Collection: sch.Collection(), Completed: completed, Err: err}
	}
	return keyed, nil
}

func (a *Adapter) insertRange(ctx context.Context, sch *schema.Schema, insts []*schema.Instance) (_ []*schema.Instance, err error) {
	start := time.Now()
	defer func() { a.observe("insert", sch.Collection(), start, err, int64(len(insts))) }()

	rows := make([]map[string]any, len(insts))
	for i, inst := range insts {
		if _, keyed := inst.ID(); keyed {
			return nil, fmt.Errorf("%w: instance already carries a primary key, keys are server-assigned",
				schema.ErrValidation)
		}
		values, verr := inst.InsertValues()
		if verr != nil {
			err = verr
			return nil, err
		}
		rows[i] = values
	}

	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if err = a.ensureReady(ctx, sch.Collection()); err != nil {
		return nil, backend.NewOperationError("insert", sch.Collection(), err)
	}

	cols, err := buildColumns(sch, rows)
	if err != nil {
		return nil, err
	}
	idCol, err := a.api.Insert(ctx, sch.Collection(), "", cols...)
	if err != nil {
		err = backend.NewOperationError("insert", sch.Collection(), err)
		return nil, err
	}

	keyed := make([]*schema.Instance, len(insts))
	for i, inst := range insts {
		id, gerr := idCol.GetAsInt64(i)
		if gerr != nil {
			err = backend.NewOperationError("insert", sch.Collection(), gerr)
			return nil, err
		}
		out := inst.Clone()
		out.SetID(id)
		keyed[i] = out
	}
	return keyed, nil
}

// Delete removes rows by primary key via a `pk in [...]` predicate.
func (a *Adapter) Delete(ctx context.Context, sch *schema.Schema, ids ...int64) (err error) {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("delete", sch.Collection(), start, err, int64(len(ids))) }()

	if err = a.ensureReady(ctx, sch.Collection()); err != nil {
		return backend.NewOperationError("delete", sch.Collection(), err)
	}
	if err = a.api.Delete(ctx, sch.Collection(), "", pkInExpr(sch.PrimaryKey().Name(), ids)); err != nil {
		return backend.NewOperationError("delete", sch.Collection(), err)
	}
	return nil
}

// Flush seals the collection's growing segments, making recent writes
// durable and queryable regardless of consistency level.
func (a *Adapter) Flush(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("flush", sch.Collection(), start, err, 0) }()

	if err = a.api.Flush(ctx, sch.Collection(), false); err != nil {
		return backend.NewOperationError("flush", sch.Collection(), err)
	}
	return nil
}

// Load brings the collection into query-node memory; Milvus serves
// searches only from loaded collections.
func (a *Adapter) Load(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("load", sch.Collection(), start, err, 0) }()

	if err = a.api.LoadCollection(ctx, sch.Collection(), false); err != nil {
		return backend.NewOperationError("load", sch.Collection(), err)
	}
	return nil
}

// Execute compiles the query state into Milvus's expression grammar and
// runs the vector-search path (with a similarity directive) or the scalar
// query path (without one). Results decode into instances with vectors
// omitted.
func (a *Adapter) Execute(ctx context.Context, st *query.State) (_ []*schema.Instance, err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	start := time.Now()
	var resultCount int64
	defer func() { a.observe("execute", st.Schema.Collection(), start, err, resultCount) }()

	if err = a.ensureReady(ctx, st.Schema.Collection()); err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	limit := st.Limit
	if limit == 0 {
		limit = maxFetchSize
	}
	if limit+st.Offset > maxFetchSize {
		return nil, fmt.Errorf("%w: milvus caps limit+offset at %d, got %d",
			backend.ErrTranslation, maxFetchSize, limit+st.Offset)
	}

	filter, err := compileExpr(st.Filter)
	if err != nil {
		return nil, err
	}

	var results []*schema.Instance
	if st.Similarity != nil {
		results, err = a.search(ctx, st, filter, limit)
	} else {
		results, err = a.query(ctx, st, filter, limit)
	}
	if err != nil {
		return nil, err
	}
	resultCount = int64(len(results))
	return results, nil
}

func (a *Adapter) search(ctx context.Context, st *query.State, filter string, limit int) ([]*schema.Instance, error) {
	sim := st.Similarity
	metric, err := metricType(sim.Metric)
	if err != nil {
		return nil, err
	}
	idx, _ := sim.Field.Spec().Index()
	sp, err := searchParam(idx, limit)
	if err != nil {
		return nil, err
	}

	var vector entity.Vector
	if sim.Field.Kind() == schema.KindBinaryVector {
		vector = entity.BinaryVector(sim.BinaryVector)
	} else {
		vector = entity.FloatVector(sim.FloatVector)
	}

	if err := a.api.LoadCollection(ctx, st.Schema.Collection(), false); err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	opts := a.consistencyOptions()
	if st.Offset > 0 {
		opts = append(opts, milvusclient.WithOffset(int64(st.Offset)))
	}
	raw, err := a.api.Search(ctx, st.Schema.Collection(), nil, filter, outputFields(st.Schema),
		[]entity.Vector{vector}, sim.Field.Name(), metric, limit, sp, opts...)
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	var out []*schema.Instance
	for _, res := range raw {
		getColumn := func(name string) entity.Column {
			if name == st.Schema.PrimaryKey().Name() {
				return res.IDs
			}
			return res.Fields.GetColumn(name)
		}
		for row := 0; row < res.ResultCount; row++ {
			inst, derr := decodeRow(st.Schema, getColumn, row)
			if derr != nil {
				return nil, backend.NewOperationError("execute", st.Schema.Collection(), derr)
			}
			if row < len(res.Scores) {
				inst.SetScore(float64(res.Scores[row]))
			}
			out = append(out, inst)
		}
	}
	return out, nil
}

func (a *Adapter) query(ctx context.Context, st *query.State, filter string, limit int) ([]*schema.Instance, error) {
	if err := a.api.LoadCollection(ctx, st.Schema.Collection(), false); err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	opts := append(a.consistencyOptions(), milvusclient.WithLimit(int64(limit)))
	if st.Offset > 0 {
		opts = append(opts, milvusclient.WithOffset(int64(st.Offset)))
	}
	rs, err := a.api.Query(ctx, st.Schema.Collection(), nil, filter, outputFields(st.Schema), opts...)
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	getColumn := func(name string) entity.Column { return rs.GetColumn(name) }
	rows := 0
	if pk := rs.GetColumn(st.Schema.PrimaryKey().Name()); pk != nil {
		rows = pk.Len()
	}
	out := make([]*schema.Instance, 0, rows)
	for row := 0; row < rows; row++ {
		inst, derr := decodeRow(st.Schema, getColumn, row)
		if derr != nil {
			return nil, backend.NewOperationError("execute", st.Schema.Collection(), derr)
		}
		out = append(out, inst)
	}
	return out, nil
}

func (a *Adapter) consistencyOptions() []milvusclient.SearchQueryOptionFunc {
	var level entity.ConsistencyLevel
	switch a.cfg.Consistency {
	case ConsistencyStrong:
		level = entity.ClStrong
	case ConsistencyBounded:
		level = entity.ClBounded
	case ConsistencyEventually:
		level = entity.ClEventually
	default:
		level = entity.ClSession
	}
	return []milvusclient.SearchQueryOptionFunc{milvusclient.WithSearchQueryConsistencyLevel(level)}
}

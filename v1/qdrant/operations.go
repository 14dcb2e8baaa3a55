package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

var _ backend.Adapter = (*Adapter)(nil)

// CreateCollection creates the collection with the vector field's
// dimensionality and metric. Safe to call repeatedly: an existing
// collection is left untouched, whatever its parameters.
func (a *Adapter) CreateCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("create_collection", sch.Collection(), start, err, 0) }()

	vec, err := vectorField(sch)
	if err != nil {
		return err
	}
	idx, _ := vec.Spec().Index()
	dist, err := distance(idx.Metric())
	if err != nil {
		return err
	}
	hnsw, err := hnswConfig(idx)
	if err != nil {
		return err
	}

	exists, err := a.api.CollectionExists(ctx, sch.Collection())
	if err != nil {
		return backend.NewOperationError("create_collection", sch.Collection(), err)
	}
	if exists {
		a.logger.Debug("collection already exists", zap.String("collection", sch.Collection()))
		a.markReady(sch.Collection())
		return nil
	}

	req := &qdrant.CreateCollection{
		CollectionName: sch.Collection(),
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vec.Spec().Dim()),
			Distance: dist,
		}),
		HnswConfig: hnsw,
	}
	if err = a.api.CreateCollection(ctx, req); err != nil {
		return backend.NewOperationError("create_collection", sch.Collection(), err)
	}

	a.markReady(sch.Collection())
	a.logger.Info("collection created",
		zap.String("collection", sch.Collection()),
		zap.Int("dim", vec.Spec().Dim()),
		zap.String("distance", dist.String()))
	return nil
}

// DropCollection removes the collection and its points.
func (a *Adapter) DropCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("drop_collection", sch.Collection(), start, err, 0) }()

	if err = a.api.DeleteCollection(ctx, sch.Collection()); err != nil {
		return backend.NewOperationError("drop_collection", sch.Collection(), err)
	}
	a.mu.Lock()
	delete(a.ready, sch.Collection())
	a.mu.Unlock()
	return nil
}

// ClearCollection deletes every point through an empty filter selector,
// keeping the collection and its index configuration in place.
func (a *Adapter) ClearCollection(ctx context.Context, sch *schema.Schema) (err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { a.observe("clear_collection", sch.Collection(), start, err, 0) }()

	if err = a.ensureReady(ctx, sch.Collection()); err != nil {
		return backend.NewOperationError("clear_collection", sch.Collection(), err)
	}
	wait := true
	if _, err = a.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: sch.Collection(),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: &qdrant.Filter{}},
		},
		Wait: &wait,
	}); err != nil {
		return backend.NewOperationError("clear_collection", sch.Collection(), err)
	}
	return nil
}

// Insert stores one instance and returns a keyed copy. Qdrant point IDs
// are caller-supplied, so the primary key is derived client-side from a
// UUID rather than assigned by the engine.
func (a *Adapter) Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error) {
	keyed, err := a.insertRange(ctx, inst.Schema(), []*schema.Instance{inst})
	if err != nil {
		return nil, err
	}
	return keyed[0], nil
}

// InsertBatch upserts instances in config-sized chunks with bounded
// parallelism; partial failures surface as a BatchError carrying the
// confirmed prefix.
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

	vec, err := vectorField(sch)
	if err != nil {
		return nil, err
	}

	points := make([]*qdrant.PointStruct, len(insts))
	keyed := make([]*schema.Instance, len(insts))
	for i, inst := range insts {
		if _, hasKey := inst.ID(); hasKey {
			return nil, fmt.Errorf("%w: instance already carries a primary key, keys are adapter-assigned",
				schema.ErrValidation)
		}
		values, verr := inst.InsertValues()
		if verr != nil {
			err = verr
			return nil, err
		}

		id := newPointID()
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(id)),
			Vectors: qdrant.NewVectors(values[vec.Name()].([]float32)...),
			Payload: qdrant.NewValueMap(buildPayload(sch, values)),
		}
		out := inst.Clone()
		out.SetID(id)
		keyed[i] = out
	}

	ctx, cancel := a.opContext(ctx)
	defer cancel()

	if err = a.ensureReady(ctx, sch.Collection()); err != nil {
		return nil, backend.NewOperationError("insert", sch.Collection(), err)
	}

	wait := true
	if _, err = a.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: sch.Collection(),
		Points:         points,
		Wait:           &wait,
	}); err != nil {
		err = backend.NewOperationError("insert", sch.Collection(), err)
		return nil, err
	}
	return keyed, nil
}

// Delete removes points by primary key, waiting for completion.
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

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDNum(uint64(id))
	}
	wait := true
	if _, err = a.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: sch.Collection(),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: &wait,
	}); err != nil {
		return backend.NewOperationError("delete", sch.Collection(), err)
	}
	return nil
}

// Flush is a no-op: upserts run with Wait=true, so writes are visible to
// subsequent queries once Insert returns.
func (a *Adapter) Flush(ctx context.Context, sch *schema.Schema) error { return nil }

// Load is a no-op: Qdrant serves collections without an explicit load step.
func (a *Adapter) Load(ctx context.Context, sch *schema.Schema) error { return nil }

// Execute compiles the query state into a Qdrant filter and runs the
// query API (with a similarity directive) or the scroll API (without one).
func (a *Adapter) Execute(ctx context.Context, st *query.State) (_ []*schema.Instance, err error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()

	start := time.Now()
	var resultCount int64
	defer func() { a.observe("execute", st.Schema.Collection(), start, err, resultCount) }()

	if _, err = vectorField(st.Schema); err != nil {
		return nil, err
	}
	if err = a.ensureReady(ctx, st.Schema.Collection()); err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	limit := st.Limit
	if limit == 0 || limit > maxFetchSize {
		limit = maxFetchSize
	}

	filter, err := compileFilter(st.Filter)
	if err != nil {
		return nil, err
	}

	var results []*schema.Instance
	if st.Similarity != nil {
		results, err = a.searchPoints(ctx, st, filter, limit)
	} else {
		results, err = a.scrollPoints(ctx, st, filter, limit)
	}
	if err != nil {
		return nil, err
	}
	resultCount = int64(len(results))
	return results, nil
}

func (a *Adapter) searchPoints(ctx context.Context, st *query.State, filter *qdrant.Filter, limit int) ([]*schema.Instance, error) {
	sim := st.Similarity
	idx, _ := sim.Field.Spec().Index()
	if sim.Metric != idx.Metric() {
		return nil, fmt.Errorf("%w: qdrant fixes the metric per collection (%s), cannot search with %s",
			backend.ErrTranslation, idx.Metric(), sim.Metric)
	}

	lim := uint64(limit)
	req := &qdrant.QueryPoints{
		CollectionName: st.Schema.Collection(),
		Query:          qdrant.NewQuery(sim.FloatVector...),
		Filter:         filter,
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if st.Offset > 0 {
		off := uint64(st.Offset)
		req.Offset = &off
	}

	resp, err := a.api.Query(ctx, req)
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	out := make([]*schema.Instance, 0, len(resp))
	for _, p := range resp {
		inst, derr := decodePayload(st.Schema, p.Id, p.Payload)
		if derr != nil {
			return nil, backend.NewOperationError("execute", st.Schema.Collection(), derr)
		}
		inst.SetScore(float64(p.Score))
		out = append(out, inst)
	}
	return out, nil
}

func (a *Adapter) scrollPoints(ctx context.Context, st *query.State, filter *qdrant.Filter, limit int) ([]*schema.Instance, error) {
	if st.Offset > 0 {
		return nil, fmt.Errorf("%w: qdrant scroll does not support numeric offsets", backend.ErrTranslation)
	}

	lim := uint32(limit)
	resp, err := a.api.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: st.Schema.Collection(),
		Filter:         filter,
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	out := make([]*schema.Instance, 0, len(resp))
	for _, p := range resp {
		inst, derr := decodePayload(st.Schema, p.Id, p.Payload)
		if derr != nil {
			return nil, backend.NewOperationError("execute", st.Schema.Collection(), derr)
		}
		out = append(out, inst)
	}
	return out, nil
}

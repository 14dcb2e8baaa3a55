package chromem

import (
	"context"
	"fmt"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

var _ backend.Adapter = (*Adapter)(nil)

// CreateCollection materialises the collection in the store. Safe to call
// repeatedly: an existing collection is reused.
func (a *Adapter) CreateCollection(ctx context.Context, sch *schema.Schema) (err error) {
	start := time.Now()
	defer func() { a.observe("create_collection", sch.Collection(), start, err, 0) }()

	if _, err = vectorField(sch); err != nil {
		return err
	}

	col, err := a.db.GetOrCreateCollection(sch.Collection(), nil, nil)
	if err != nil {
		return backend.NewOperationError("create_collection", sch.Collection(), err)
	}

	a.mu.Lock()
	a.collections[sch.Collection()] = col
	a.mu.Unlock()
	a.logger.Info("collection ready", zap.String("collection", sch.Collection()))
	return nil
}

// DropCollection removes the collection and its documents.
func (a *Adapter) DropCollection(ctx context.Context, sch *schema.Schema) (err error) {
	start := time.Now()
	defer func() { a.observe("drop_collection", sch.Collection(), start, err, 0) }()

	if err = a.db.DeleteCollection(sch.Collection()); err != nil {
		return backend.NewOperationError("drop_collection", sch.Collection(), err)
	}
	a.mu.Lock()
	delete(a.collections, sch.Collection())
	a.mu.Unlock()
	return nil
}

// ClearCollection empties the collection by dropping and recreating it:
// chromem's delete API requires an explicit where clause or document IDs,
// so there is no delete-all primitive to call.
func (a *Adapter) ClearCollection(ctx context.Context, sch *schema.Schema) (err error) {
	start := time.Now()
	defer func() { a.observe("clear_collection", sch.Collection(), start, err, 0) }()

	if _, err = vectorField(sch); err != nil {
		return err
	}
	if err = a.db.DeleteCollection(sch.Collection()); err != nil {
		return backend.NewOperationError("clear_collection", sch.Collection(), err)
	}
	col, err := a.db.GetOrCreateCollection(sch.Collection(), nil, nil)
	if err != nil {
		return backend.NewOperationError("clear_collection", sch.Collection(), err)
	}
	a.mu.Lock()
	a.collections[sch.Collection()] = col
	a.mu.Unlock()
	return nil
}

// Insert stores one instance and returns a keyed copy. chromem document
// IDs are caller-supplied, so the primary key is derived client-side from
// a UUID rather than assigned by the engine.
func (a *Adapter) Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error) {
	keyed, err := a.insertRange(ctx, inst.Schema(), []*schema.Instance{inst})
	if err != nil {
		return nil, err
	}
	return keyed[0], nil
}

// InsertBatch stores instances in config-sized chunks with bounded
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
	col, err := a.collection(sch.Collection())
	if err != nil {
		return nil, backend.NewOperationError("insert", sch.Collection(), err)
	}

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
		meta, merr := buildMetadata(sch, values)
		if merr != nil {
			err = merr
			return nil, err
		}

		id := newDocID()
		if err = col.AddDocument(ctx, chromem.Document{
			ID:        docID(id),
			Metadata:  meta,
			Embedding: values[vec.Name()].([]float32),
		}); err != nil {
			err = backend.NewOperationError("insert", sch.Collection(), err)
			return nil, err
		}
		out := inst.Clone()
		out.SetID(id)
		keyed[i] = out
	}
	return keyed, nil
}

// Delete removes documents by primary key.
func (a *Adapter) Delete(ctx context.Context, sch *schema.Schema, ids ...int64) (err error) {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { a.observe("delete", sch.Collection(), start, err, int64(len(ids))) }()

	col, err := a.collection(sch.Collection())
	if err != nil {
		return backend.NewOperationError("delete", sch.Collection(), err)
	}

	docIDs := make([]string, len(ids))
	for i, id := range ids {
		docIDs[i] = docID(id)
	}
	if err = col.Delete(ctx, nil, nil, docIDs...); err != nil {
		return backend.NewOperationError("delete", sch.Collection(), err)
	}
	return nil
}

// Flush is a no-op: writes are applied synchronously, and persistence (if
// configured) happens per document.
func (a *Adapter) Flush(ctx context.Context, sch *schema.Schema) error { return nil }

// Load is a no-op: the store is embedded and always resident.
func (a *Adapter) Load(ctx context.Context, sch *schema.Schema) error { return nil }

// Execute runs a similarity query over the collection. chromem has no
// filter-only scan and no offset support, so queries without a similarity
// directive, or with a non-zero offset, fail translation.
func (a *Adapter) Execute(ctx context.Context, st *query.State) (_ []*schema.Instance, err error) {
	start := time.Now()
	var resultCount int64
	defer func() { a.observe("execute", st.Schema.Collection(), start, err, resultCount) }()

	if _, err = vectorField(st.Schema); err != nil {
		return nil, err
	}
	if st.Similarity == nil {
		return nil, fmt.Errorf("%w: chromem cannot run filter-only queries, add a similarity ordering",
			backend.ErrTranslation)
	}
	if st.Similarity.Metric != schema.MetricCosine {
		return nil, fmt.Errorf("%w: chromem only supports cosine similarity, got %s",
			backend.ErrTranslation, st.Similarity.Metric)
	}
	if st.Offset > 0 {
		return nil, fmt.Errorf("%w: chromem does not support offsets", backend.ErrTranslation)
	}

	where, err := compileWhere(st.Schema, st.Filter)
	if err != nil {
		return nil, err
	}

	col, err := a.collection(st.Schema.Collection())
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	// QueryEmbedding rejects result counts above the document count, so
	// the limit is clamped to what the collection holds.
	topK := st.Limit
	if count := col.Count(); topK == 0 || topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, st.Similarity.FloatVector, topK, where, nil)
	if err != nil {
		return nil, backend.NewOperationError("execute", st.Schema.Collection(), err)
	}

	out := make([]*schema.Instance, 0, len(results))
	for _, r := range results {
		inst, derr := decodeMetadata(st.Schema, r.ID, r.Metadata)
		if derr != nil {
			return nil, backend.NewOperationError("execute", st.Schema.Collection(), derr)
		}
		inst.SetScore(float64(r.Similarity))
		out = append(out, inst)
	}
	resultCount = int64(len(out))
	return out, nil
}

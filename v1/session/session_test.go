package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/query"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

var docSchema = schema.MustNew("documents",
	schema.F("id", schema.PrimaryKey()),
	schema.F("title", schema.VarChar(128)),
	schema.F("embedding", schema.FloatVector(4)),
)

// fakeAdapter records calls and returns canned results.
type fakeAdapter struct {
	calls   []string
	failOn  string
	lastIDs []int64
}

var errBoom = errors.New("boom")

func (f *fakeAdapter) call(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errBoom
	}
	return nil
}

func (f *fakeAdapter) CreateCollection(ctx context.Context, sch *schema.Schema) error {
	return f.call("create_collection")
}

func (f *fakeAdapter) DropCollection(ctx context.Context, sch *schema.Schema) error {
	return f.call("drop_collection")
}

func (f *fakeAdapter) ClearCollection(ctx context.Context, sch *schema.Schema) error {
	return f.call("clear_collection")
}

func (f *fakeAdapter) Insert(ctx context.Context, inst *schema.Instance) (*schema.Instance, error) {
	if err := f.call("insert"); err != nil {
		return nil, err
	}
	keyed := inst.Clone()
	keyed.SetID(1)
	return keyed, nil
}

func (f *fakeAdapter) InsertBatch(ctx context.Context, insts []*schema.Instance, progress backend.Progress) ([]*schema.Instance, error) {
	if err := f.call("insert_batch"); err != nil {
		return nil, err
	}
	keyed := make([]*schema.Instance, len(insts))
	for i, inst := range insts {
		out := inst.Clone()
		out.SetID(int64(i + 1))
		keyed[i] = out
	}
	if progress != nil {
		progress(len(insts), len(insts))
	}
	return keyed, nil
}

func (f *fakeAdapter) Delete(ctx context.Context, sch *schema.Schema, ids ...int64) error {
	f.lastIDs = ids
	return f.call("delete")
}

func (f *fakeAdapter) Flush(ctx context.Context, sch *schema.Schema) error { return f.call("flush") }

func (f *fakeAdapter) Load(ctx context.Context, sch *schema.Schema) error { return f.call("load") }

func (f *fakeAdapter) Execute(ctx context.Context, st *query.State) ([]*schema.Instance, error) {
	if err := f.call("execute"); err != nil {
		return nil, err
	}
	inst := st.Schema.NewInstance()
	inst.SetID(7)
	return []*schema.Instance{inst}, nil
}

func newInstance(t *testing.T) *schema.Instance {
	t.Helper()
	inst := docSchema.NewInstance()
	require.NoError(t, inst.Set("title", "hello"))
	require.NoError(t, inst.Set("embedding", []float32{1, 2, 3, 4}))
	return inst
}

func TestSessionPassesThrough(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{}
	sess := New(fake, WithLogger(zap.NewNop()))

	require.NoError(t, sess.CreateCollection(ctx, docSchema))

	keyed, err := sess.Insert(ctx, newInstance(t))
	require.NoError(t, err)
	id, ok := keyed.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	require.NoError(t, sess.Delete(ctx, docSchema, 1, 2, 3))
	assert.Equal(t, []int64{1, 2, 3}, fake.lastIDs)

	require.NoError(t, sess.Flush(ctx, docSchema))
	require.NoError(t, sess.Load(ctx, docSchema))
	require.NoError(t, sess.ClearCollection(ctx, docSchema))
	require.NoError(t, sess.DropCollection(ctx, docSchema))

	assert.Equal(t,
		[]string{"create_collection", "insert", "delete", "flush", "load", "clear_collection", "drop_collection"},
		fake.calls)
}

func TestSessionQueryUsesAdapter(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{}
	sess := New(fake)

	results, err := sess.Query(docSchema).
		OrderBySimilarity("embedding", []float32{1, 0, 0, 0}).
		Limit(5).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"execute"}, fake.calls)
}

func TestSessionQueryValidationNeverReachesAdapter(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{}
	sess := New(fake)

	_, err := sess.Query(docSchema).
		Filter(docSchema.MustField("title").Gt("abc")).
		All(ctx)
	assert.ErrorIs(t, err, schema.ErrValidation)
	assert.Empty(t, fake.calls)
}

func TestSessionInsertBatch(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{}
	sess := New(fake)

	insts := []*schema.Instance{newInstance(t), newInstance(t)}
	var reported int
	keyed, err := sess.InsertBatch(ctx, insts, func(completed, total int) { reported = completed })
	require.NoError(t, err)
	require.Len(t, keyed, 2)
	assert.Equal(t, 2, reported)
}

func TestSessionInsertBatchEmpty(t *testing.T) {
	fake := &fakeAdapter{}
	sess := New(fake)

	keyed, err := sess.InsertBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, keyed)
	assert.Empty(t, fake.calls)
}

func TestSessionPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAdapter{failOn: "insert"}
	sess := New(fake, WithLogger(zap.NewNop()))

	_, err := sess.Insert(ctx, newInstance(t))
	assert.ErrorIs(t, err, errBoom)
}

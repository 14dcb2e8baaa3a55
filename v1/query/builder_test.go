package query

import (
	"context"
	"errors"
	"testing"

	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

var docSchema = schema.MustNew("documents",
	schema.F("id", schema.PrimaryKey()),
	schema.F("title", schema.VarChar(64)),
	schema.F("visits", schema.Int64()),
	schema.F("embedding", schema.FloatVector(4, schema.HNSW(schema.MetricCosine, 16, 128))),
	schema.F("fingerprint", schema.BinaryVector(64)),
)

// recordingExecutor captures the state handed to Execute.
type recordingExecutor struct {
	invocations int
	last        *State
	results     []*schema.Instance
	err         error
}

func (r *recordingExecutor) Execute(ctx context.Context, st *State) ([]*schema.Instance, error) {
	r.invocations++
	r.last = st
	return r.results, r.err
}

func TestBuilderAccumulatesState(t *testing.T) {
	exec := &recordingExecutor{}
	_, err := New(exec, docSchema).
		Filter(docSchema.MustField("visits").Gt(int64(10))).
		Filter(docSchema.MustField("title").Eq("x")).
		OrderBySimilarity("embedding", []float32{1, 0, 0, 0}).
		Limit(20).
		Offset(5).
		All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if exec.invocations != 1 {
		t.Fatalf("invocations = %d", exec.invocations)
	}

	st := exec.last
	if st.Limit != 20 || st.Offset != 5 {
		t.Errorf("limit/offset = %d/%d", st.Limit, st.Offset)
	}
	wantFilter := expr.And(expr.Gt("visits", int64(10)), expr.Eq("title", "x"))
	if !st.Filter.Equal(wantFilter) {
		t.Errorf("filter = %+v", st.Filter)
	}
	if st.Similarity == nil || st.Similarity.Field.Name() != "embedding" {
		t.Errorf("similarity = %+v", st.Similarity)
	}
	if st.Similarity.Metric != schema.MetricCosine {
		t.Errorf("metric should default from the field index, got %s", st.Similarity.Metric)
	}
}

func TestBuilderValidationStopsExecution(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Builder) *Builder
		want  error
	}{
		{
			"unknown filter field",
			func(b *Builder) *Builder { return b.Filter(expr.Eq("missing", 1)) },
			schema.ErrSchema,
		},
		{
			"illegal operator",
			func(b *Builder) *Builder { return b.Filter(expr.Gt("title", "a")) },
			schema.ErrValidation,
		},
		{
			"unknown similarity field",
			func(b *Builder) *Builder { return b.OrderBySimilarity("missing", []float32{1}) },
			schema.ErrSchema,
		},
		{
			"similarity on scalar field",
			func(b *Builder) *Builder { return b.OrderBySimilarity("title", []float32{1}) },
			schema.ErrValidation,
		},
		{
			"dimension mismatch",
			func(b *Builder) *Builder { return b.OrderBySimilarity("embedding", make([]float32, 128)) },
			schema.ErrValidation,
		},
		{
			"binary vector on float field",
			func(b *Builder) *Builder { return b.OrderBySimilarity("embedding", make([]byte, 8)) },
			schema.ErrValidation,
		},
		{
			"float vector on binary field",
			func(b *Builder) *Builder { return b.OrderBySimilarity("fingerprint", []float32{1, 2, 3, 4}) },
			schema.ErrValidation,
		},
		{
			"binary metric on float field",
			func(b *Builder) *Builder {
				return b.OrderBySimilarity("embedding", []float32{1, 0, 0, 0}, WithMetric(schema.MetricJaccard))
			},
			schema.ErrValidation,
		},
		{
			"zero limit",
			func(b *Builder) *Builder { return b.Limit(0) },
			schema.ErrValidation,
		},
		{
			"negative limit",
			func(b *Builder) *Builder { return b.Limit(-5) },
			schema.ErrValidation,
		},
		{
			"negative offset",
			func(b *Builder) *Builder { return b.Offset(-1) },
			schema.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			b := tt.build(New(exec, docSchema))
			if err := b.Err(); !errors.Is(err, tt.want) {
				t.Fatalf("Err = %v, want %v", err, tt.want)
			}
			if _, err := b.All(context.Background()); !errors.Is(err, tt.want) {
				t.Fatalf("All = %v, want %v", err, tt.want)
			}
			if exec.invocations != 0 {
				t.Errorf("invalid query reached the executor %d times", exec.invocations)
			}
		})
	}
}

func TestBuilderFirstErrorSticks(t *testing.T) {
	exec := &recordingExecutor{}
	b := New(exec, docSchema).
		Limit(0).
		Filter(docSchema.MustField("title").Eq("x")).
		Limit(10)
	if err := b.Err(); !errors.Is(err, schema.ErrValidation) {
		t.Fatalf("expected the first error to stick, got %v", err)
	}
}

func TestBuilderRejectsSecondSimilarity(t *testing.T) {
	b := New(&recordingExecutor{}, docSchema).
		OrderBySimilarity("embedding", []float32{1, 0, 0, 0}).
		OrderBySimilarity("embedding", []float32{0, 1, 0, 0})
	if err := b.Err(); !errors.Is(err, schema.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuilderConvertsFloat64Vectors(t *testing.T) {
	exec := &recordingExecutor{}
	_, err := New(exec, docSchema).
		OrderBySimilarity("embedding", []float64{1, 0, 0, 0}).
		All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if got := exec.last.Similarity.FloatVector; len(got) != 4 || got[0] != 1 {
		t.Errorf("converted vector = %v", got)
	}
}

func TestBuilderBinarySimilarity(t *testing.T) {
	exec := &recordingExecutor{}
	_, err := New(exec, docSchema).
		OrderBySimilarity("fingerprint", make([]byte, 8)).
		All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	sim := exec.last.Similarity
	if len(sim.BinaryVector) != 8 {
		t.Errorf("binary vector = %v", sim.BinaryVector)
	}
	if sim.Metric != schema.MetricJaccard {
		t.Errorf("metric should default to the binary index metric, got %s", sim.Metric)
	}
}

func TestBuilderFirst(t *testing.T) {
	inst := docSchema.NewInstance()
	exec := &recordingExecutor{results: []*schema.Instance{inst}}

	got, err := New(exec, docSchema).First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got != inst {
		t.Error("First should return the single result")
	}
	if exec.last.Limit != 1 {
		t.Errorf("First should execute with limit 1, got %d", exec.last.Limit)
	}
}

func TestBuilderFirstEmpty(t *testing.T) {
	exec := &recordingExecutor{}
	got, err := New(exec, docSchema).First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got != nil {
		t.Errorf("First on empty result = %v, want nil", got)
	}
}

func TestBuilderNilSchema(t *testing.T) {
	b := New(&recordingExecutor{}, nil)
	if err := b.Err(); !errors.Is(err, schema.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestBuilderExecutorError(t *testing.T) {
	boom := errors.New("backend down")
	exec := &recordingExecutor{err: boom}
	_, err := New(exec, docSchema).All(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected executor error, got %v", err)
	}
}

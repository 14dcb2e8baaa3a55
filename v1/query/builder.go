package query

import (
	"context"
	"fmt"

	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

// Executor runs an accumulated query state against one engine. Backend
// adapters implement it; the builder itself never touches the network.
type Executor interface {
	Execute(ctx context.Context, st *State) ([]*schema.Instance, error)
}

// Similarity is the ordering directive attached by OrderBySimilarity:
// rank results by distance between the reference vector and the named
// vector field. At most one per query; it does not alter filter semantics.
type Similarity struct {
	Field        *schema.Field
	FloatVector  []float32
	BinaryVector []byte
	Metric       schema.Metric
}

// State is the accumulated request handed to an Executor: target schema,
// optional filter tree, optional similarity ordering, optional limit and
// offset. Treat it as immutable once execution starts.
type State struct {
	Schema     *schema.Schema
	Filter     expr.Node
	Similarity *Similarity
	Limit      int
	Offset     int
}

// Builder accumulates a validated query state through fluent calls.
// Every call validates its arguments immediately; the first violation
// sticks and is returned by All/First/Err, so an invalid query never
// reaches the backend.
//
// A Builder is not safe for concurrent mutation; build on one goroutine,
// then execute.
type Builder struct {
	exec Executor
	st   State
	err  error
}

// New opens a query against a schema with no filter, no ordering and no
// limit. Executing without a limit applies the executor's default cap.
func New(exec Executor, sch *schema.Schema) *Builder {
	b := &Builder{exec: exec, st: State{Schema: sch}}
	if sch == nil {
		b.err = fmt.Errorf("%w: query opened without a schema", schema.ErrSchema)
	}
	return b
}

// Filter AND-combines the given expression nodes into the accumulated
// filter; repeated calls conjunctively narrow results. Nodes referencing
// unknown fields fail with a schema error, illegal operators or literal
// types with a validation error, at this call rather than at execution.
func (b *Builder) Filter(nodes ...expr.Node) *Builder {
	if b.err != nil {
		return b
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := b.st.Schema.ValidateNode(n); err != nil {
			b.err = err
			return b
		}
		b.st.Filter = expr.And(b.st.Filter, n)
	}
	return b
}

// SimilarityOption customises a similarity directive.
type SimilarityOption func(*Similarity)

// WithMetric overrides the metric declared on the field's index.
func WithMetric(m schema.Metric) SimilarityOption {
	return func(s *Similarity) { s.Metric = m }
}

// OrderBySimilarity ranks results by distance between vector and the named
// vector field. Fails if the query already carries a directive, the field
// is not a vector field, the vector's length does not equal the declared
// dimensionality, or the metric does not fit the element type.
func (b *Builder) OrderBySimilarity(field string, vector any, opts ...SimilarityOption) *Builder {
	if b.err != nil {
		return b
	}
	if b.st.Similarity != nil {
		b.err = fmt.Errorf("%w: query already has a similarity ordering", schema.ErrValidation)
		return b
	}
	f, ok := b.st.Schema.Field(field)
	if !ok {
		b.err = fmt.Errorf("%w: collection %q has no field %q",
			schema.ErrSchema, b.st.Schema.Collection(), field)
		return b
	}
	if !f.Kind().Vector() {
		b.err = fmt.Errorf("%w: field %q is not a vector field", schema.ErrValidation, field)
		return b
	}

	sim := &Similarity{Field: f}
	if idx, ok := f.Spec().Index(); ok {
		sim.Metric = idx.Metric()
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.Metric.Binary() != (f.Kind() == schema.KindBinaryVector) {
		b.err = fmt.Errorf("%w: metric %s is incompatible with %s field %q",
			schema.ErrValidation, sim.Metric, f.Kind(), field)
		return b
	}

	switch vec := vector.(type) {
	case []float32:
		if f.Kind() != schema.KindFloatVector {
			b.err = fmt.Errorf("%w: field %q expects a binary vector", schema.ErrValidation, field)
			return b
		}
		if len(vec) != f.Spec().Dim() {
			b.err = fmt.Errorf("%w: field %q: reference vector length %d does not match dimension %d",
				schema.ErrValidation, field, len(vec), f.Spec().Dim())
			return b
		}
		sim.FloatVector = vec
	case []float64:
		converted := make([]float32, len(vec))
		for i, x := range vec {
			converted[i] = float32(x)
		}
		return b.OrderBySimilarity(field, converted, opts...)
	case []byte:
		if f.Kind() != schema.KindBinaryVector {
			b.err = fmt.Errorf("%w: field %q expects a float vector", schema.ErrValidation, field)
			return b
		}
		if len(vec) != f.Spec().Dim()/8 {
			b.err = fmt.Errorf("%w: field %q: reference vector length %d bytes does not match dimension %d bits",
				schema.ErrValidation, field, len(vec), f.Spec().Dim())
			return b
		}
		sim.BinaryVector = vec
	default:
		b.err = fmt.Errorf("%w: field %q: unsupported reference vector type %T",
			schema.ErrValidation, field, vector)
		return b
	}

	b.st.Similarity = sim
	return b
}

// Limit caps the result count. n must be positive; a later call
// overwrites an earlier one.
func (b *Builder) Limit(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("%w: limit must be positive, got %d", schema.ErrValidation, n)
		return b
	}
	b.st.Limit = n
	return b
}

// Offset skips the first n results. Engines without offset support reject
// it at execution with a translation error.
func (b *Builder) Offset(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		b.err = fmt.Errorf("%w: offset cannot be negative, got %d", schema.ErrValidation, n)
		return b
	}
	b.st.Offset = n
	return b
}

// Err returns the first validation failure recorded by any builder call.
func (b *Builder) Err() error { return b.err }

// State returns the accumulated query state.
func (b *Builder) State() *State { return &b.st }

// All executes the query and returns the ordered result set. With a
// similarity directive results come back ascending by distance (or
// descending by score, per the metric's convention); otherwise the order
// is whatever the engine returns.
func (b *Builder) All(ctx context.Context) ([]*schema.Instance, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.exec == nil {
		return nil, fmt.Errorf("%w: query has no executor bound", schema.ErrValidation)
	}
	return b.exec.Execute(ctx, &b.st)
}

// First executes the query with limit 1 and returns the single result,
// or nil when nothing matches.
func (b *Builder) First(ctx context.Context) (*schema.Instance, error) {
	results, err := b.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

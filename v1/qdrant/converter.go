package qdrant

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

// vectorField returns the schema's single float vector field. Qdrant
// collections carry one unnamed vector per point, so schemas with zero or
// multiple vector fields, or a binary vector, cannot be represented.
func vectorField(sch *schema.Schema) (*schema.Field, error) {
	vectors := sch.VectorFields()
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: qdrant requires exactly one vector field, collection %q has %d",
			backend.ErrTranslation, sch.Collection(), len(vectors))
	}
	f := vectors[0]
	if f.Kind() == schema.KindBinaryVector {
		return nil, fmt.Errorf("%w: qdrant does not support binary vectors (field %q)",
			backend.ErrTranslation, f.Name())
	}
	return f, nil
}

func distance(m schema.Metric) (qdrant.Distance, error) {
	switch m {
	case schema.MetricL2:
		return qdrant.Distance_Euclid, nil
	case schema.MetricIP:
		return qdrant.Distance_Dot, nil
	case schema.MetricCosine:
		return qdrant.Distance_Cosine, nil
	}
	return qdrant.Distance_UnknownDistance,
		fmt.Errorf("%w: qdrant does not support metric %q", backend.ErrTranslation, m)
}

// hnswConfig maps an HNSW index declaration onto Qdrant's tuning knobs.
// Qdrant builds HNSW graphs natively; FLAT means exhaustive search, which
// Qdrant falls back to on its own for small segments, so both map cleanly.
// Clustered IVF kinds have no Qdrant equivalent.
func hnswConfig(idx schema.Index) (*qdrant.HnswConfigDiff, error) {
	switch idx.Kind() {
	case schema.IndexFlat:
		return nil, nil
	case schema.IndexHNSW:
		params := idx.Params()
		m := uint64(params["M"].(int))
		ef := uint64(params["efConstruction"].(int))
		return &qdrant.HnswConfigDiff{M: &m, EfConstruct: &ef}, nil
	}
	return nil, fmt.Errorf("%w: qdrant does not support index kind %q", backend.ErrTranslation, idx.Kind())
}

// newPointID derives a non-negative numeric point ID from a random UUID.
// Qdrant requires caller-supplied IDs, so "server-assigned" keys are
// adapter-assigned here.
func newPointID() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint64(u[:8]) &^ (1 << 63))
}

// buildPayload lays out the scalar field values as a point payload.
func buildPayload(sch *schema.Schema, values map[string]any) map[string]any {
	payload := make(map[string]any, len(values))
	for _, f := range sch.ScalarFields() {
		payload[f.Name()] = values[f.Name()]
	}
	return payload
}

// ── Filter compilation ───────────────────────────────────────────────────────

// compileFilter renders the expression tree as a Qdrant filter. AND maps
// to must, OR to should, != to must_not, and ordered comparisons to range
// conditions; nesting uses sub-filter conditions.
func compileFilter(n expr.Node) (*qdrant.Filter, error) {
	if n == nil {
		return nil, nil
	}
	cond, err := compileNode(n)
	if err != nil {
		return nil, err
	}
	if f := cond.GetFilter(); f != nil {
		return f, nil
	}
	return &qdrant.Filter{Must: []*qdrant.Condition{cond}}, nil
}

func compileNode(n expr.Node) (*qdrant.Condition, error) {
	switch v := n.(type) {
	case *expr.Comparison:
		return compileComparison(v)
	case *expr.Conjunction:
		conds, err := compileOperands(v.Operands)
		if err != nil {
			return nil, err
		}
		return wrapFilter(&qdrant.Filter{Must: conds}), nil
	case *expr.Disjunction:
		conds, err := compileOperands(v.Operands)
		if err != nil {
			return nil, err
		}
		return wrapFilter(&qdrant.Filter{Should: conds}), nil
	}
	return nil, fmt.Errorf("%w: unknown expression node %T", backend.ErrTranslation, n)
}

func compileOperands(operands []expr.Node) ([]*qdrant.Condition, error) {
	conds := make([]*qdrant.Condition, 0, len(operands))
	for _, op := range operands {
		c, err := compileNode(op)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func wrapFilter(f *qdrant.Filter) *qdrant.Condition {
	return &qdrant.Condition{ConditionOneOf: &qdrant.Condition_Filter{Filter: f}}
}

func compileComparison(c *expr.Comparison) (*qdrant.Condition, error) {
	switch c.Op {
	case expr.OpEq:
		return matchCondition(c.Field, c.Value)
	case expr.OpNe:
		match, err := matchCondition(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		return wrapFilter(&qdrant.Filter{MustNot: []*qdrant.Condition{match}}), nil
	case expr.OpGt, expr.OpGte, expr.OpLt, expr.OpLte:
		return rangeCondition(c)
	}
	return nil, fmt.Errorf("%w: qdrant does not support operator %q", backend.ErrTranslation, c.Op)
}

func matchCondition(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(field, v), nil
	case int:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(field, v), nil
	case float32:
		return floatEquality(field, float64(v)), nil
	case float64:
		return floatEquality(field, v), nil
	}
	return nil, fmt.Errorf("%w: qdrant cannot match literal type %T on field %q",
		backend.ErrTranslation, value, field)
}

// floatEquality expresses float equality as a closed range; Qdrant's match
// condition only covers keywords, integers and booleans.
func floatEquality(field string, v float64) *qdrant.Condition {
	return qdrant.NewRange(field, &qdrant.Range{Gte: &v, Lte: &v})
}

func rangeCondition(c *expr.Comparison) (*qdrant.Condition, error) {
	var bound float64
	switch v := c.Value.(type) {
	case int:
		bound = float64(v)
	case int64:
		bound = float64(v)
	case float32:
		bound = float64(v)
	case float64:
		bound = v
	default:
		return nil, fmt.Errorf("%w: qdrant range comparisons need a numeric literal, field %q got %T",
			backend.ErrTranslation, c.Field, c.Value)
	}

	r := &qdrant.Range{}
	switch c.Op {
	case expr.OpGt:
		r.Gt = &bound
	case expr.OpGte:
		r.Gte = &bound
	case expr.OpLt:
		r.Lt = &bound
	case expr.OpLte:
		r.Lte = &bound
	}
	return qdrant.NewRange(c.Field, r), nil
}

// ── Result decoding ──────────────────────────────────────────────────────────

func decodePointID(id *qdrant.PointId) (int64, error) {
	if id == nil {
		return 0, fmt.Errorf("nil point ID")
	}
	num, ok := id.PointIdOptions.(*qdrant.PointId_Num)
	if !ok {
		return 0, fmt.Errorf("unexpected point ID type %T", id.PointIdOptions)
	}
	return int64(num.Num), nil
}

// decodePayload reads a point payload back into a schema instance,
// coercing protobuf values to the field's declared type so numeric and
// text round trips are exact.
func decodePayload(sch *schema.Schema, id *qdrant.PointId, payload map[string]*qdrant.Value) (*schema.Instance, error) {
	inst := sch.NewInstance()

	pk, err := decodePointID(id)
	if err != nil {
		return nil, err
	}
	inst.SetID(pk)

	for _, f := range sch.ScalarFields() {
		raw, ok := payload[f.Name()]
		if !ok {
			continue
		}
		var value any
		switch f.Kind() {
		case schema.KindVarChar:
			value = raw.GetStringValue()
		case schema.KindInt64:
			value = raw.GetIntegerValue()
		case schema.KindFloat64:
			value = raw.GetDoubleValue()
		default:
			continue
		}
		if err := inst.Set(f.Name(), value); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

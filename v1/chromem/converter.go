package chromem

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

// vectorField returns the schema's single float vector field and checks
// that its index is representable: chromem searches exhaustively with
// cosine similarity, so binary vectors, multiple vectors, and non-cosine
// metrics all fail translation.
func vectorField(sch *schema.Schema) (*schema.Field, error) {
	vectors := sch.VectorFields()
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: chromem requires exactly one vector field, collection %q has %d",
			backend.ErrTranslation, sch.Collection(), len(vectors))
	}
	f := vectors[0]
	if f.Kind() == schema.KindBinaryVector {
		return nil, fmt.Errorf("%w: chromem does not support binary vectors (field %q)",
			backend.ErrTranslation, f.Name())
	}
	idx, _ := f.Spec().Index()
	if idx.Metric() != schema.MetricCosine {
		return nil, fmt.Errorf("%w: chromem only supports cosine similarity, field %q declares %s",
			backend.ErrTranslation, f.Name(), idx.Metric())
	}
	return f, nil
}

// newDocID derives a non-negative numeric primary key from a random UUID.
// chromem document IDs are caller-supplied strings, so keys are
// adapter-assigned and stored in decimal form.
func newDocID() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint64(u[:8]) &^ (1 << 63))
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

// encodeScalar renders a canonical scalar value as its metadata string.
// The same encoding serves storage and where-filter compilation, so
// equality filters compare exactly.
func encodeScalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: chromem cannot store metadata value of type %T", backend.ErrTranslation, v)
}

// buildMetadata stringifies the scalar field values for document storage.
func buildMetadata(sch *schema.Schema, values map[string]any) (map[string]string, error) {
	meta := make(map[string]string, len(values))
	for _, f := range sch.ScalarFields() {
		v, ok := values[f.Name()]
		if !ok {
			continue
		}
		s, err := encodeScalar(v)
		if err != nil {
			return nil, err
		}
		meta[f.Name()] = s
	}
	return meta, nil
}

// compileWhere flattens the expression tree into chromem's metadata
// filter: a conjunction of equality comparisons, each field at most once.
// Disjunctions, negations and ordered comparisons have no representation
// and fail translation.
func compileWhere(sch *schema.Schema, n expr.Node) (map[string]string, error) {
	if n == nil {
		return nil, nil
	}
	where := make(map[string]string)
	if err := flattenInto(sch, n, where); err != nil {
		return nil, err
	}
	return where, nil
}

func flattenInto(sch *schema.Schema, n expr.Node, where map[string]string) error {
	switch v := n.(type) {
	case *expr.Comparison:
		if v.Op != expr.OpEq {
			return fmt.Errorf("%w: chromem metadata filters only support equality, got %q on field %q",
				backend.ErrTranslation, v.Op, v.Field)
		}
		if _, dup := where[v.Field]; dup {
			return fmt.Errorf("%w: chromem allows at most one equality per field, %q appears twice",
				backend.ErrTranslation, v.Field)
		}
		s, err := encodeScalar(canonicalLiteral(v.Value))
		if err != nil {
			return err
		}
		where[v.Field] = s
		return nil
	case *expr.Conjunction:
		for _, op := range v.Operands {
			if err := flattenInto(sch, op, where); err != nil {
				return err
			}
		}
		return nil
	case *expr.Disjunction:
		return fmt.Errorf("%w: chromem metadata filters cannot express OR", backend.ErrTranslation)
	}
	return fmt.Errorf("%w: unknown expression node %T", backend.ErrTranslation, n)
}

// canonicalLiteral widens filter literals to the canonical scalar forms
// so the where encoding matches the stored metadata encoding.
func canonicalLiteral(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// decodeMetadata reads a document's metadata back into a schema instance.
func decodeMetadata(sch *schema.Schema, id string, meta map[string]string) (*schema.Instance, error) {
	inst := sch.NewInstance()

	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("chromem: malformed document ID %q: %w", id, err)
	}
	inst.SetID(pk)

	for _, f := range sch.ScalarFields() {
		raw, ok := meta[f.Name()]
		if !ok {
			continue
		}
		var value any
		switch f.Kind() {
		case schema.KindVarChar:
			value = raw
		case schema.KindInt64:
			value, err = strconv.ParseInt(raw, 10, 64)
		case schema.KindFloat64:
			value, err = strconv.ParseFloat(raw, 64)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("chromem: field %q: malformed metadata %q: %w", f.Name(), raw, err)
		}
		if err := inst.Set(f.Name(), value); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

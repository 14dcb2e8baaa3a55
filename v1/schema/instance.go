package schema

import "fmt"

// Instance is one row of a collection: a value per declared field plus the
// primary key, which stays unset until an adapter assigns it on insert.
// Instances are plain data owned by the caller; they share no state with
// the backend.
type Instance struct {
	schema   *Schema
	values   map[string]any
	id       int64
	hasID    bool
	score    float64
	hasScore bool
}

// NewInstance creates an empty instance of this schema with an unset
// primary key.
func (s *Schema) NewInstance() *Instance {
	return &Instance{schema: s, values: make(map[string]any)}
}

// Schema returns the schema this instance belongs to.
func (i *Instance) Schema() *Schema { return i.schema }

// Set assigns a field value after validating it against the field's
// descriptor: kind and element type must match, vectors must have exactly
// the declared length, varchar values must fit the declared maximum.
// Violations wrap ErrValidation (ErrSchema for unknown fields) and are
// raised here, before any network call.
func (i *Instance) Set(field string, v any) error {
	f, ok := i.schema.byName[field]
	if !ok {
		return fmt.Errorf("%w: collection %q has no field %q", ErrSchema, i.schema.collection, field)
	}
	if f.spec.kind == KindPrimaryKey {
		return fmt.Errorf("%w: field %q: primary keys are assigned by the backend", ErrValidation, field)
	}
	coerced, err := coerceValue(f.spec.kind, f.spec, v)
	if err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrValidation, field, err)
	}
	i.values[field] = coerced
	return nil
}

// MustSet is Set that panics on error, for fixtures and examples.
func (i *Instance) MustSet(field string, v any) *Instance {
	if err := i.Set(field, v); err != nil {
		panic(err)
	}
	return i
}

// Get returns the stored value for a field and whether it has been set.
// Values come back in canonical form: string, int64, float64, []float32,
// or []byte.
func (i *Instance) Get(field string) (any, bool) {
	v, ok := i.values[field]
	return v, ok
}

// ID returns the primary key and whether it has been assigned.
func (i *Instance) ID() (int64, bool) { return i.id, i.hasID }

// SetID assigns the primary key. Called by backend adapters when decoding
// rows or confirming inserts; application code has no reason to call it.
func (i *Instance) SetID(id int64) {
	i.id = id
	i.hasID = true
}

// Score returns the engine-reported similarity score and whether one was
// recorded. Only instances decoded from a similarity query carry a score;
// its convention follows the metric (distance metrics rank lower-is-closer,
// similarity metrics higher-is-closer).
func (i *Instance) Score() (float64, bool) { return i.score, i.hasScore }

// SetScore records the similarity score. Called by backend adapters when
// decoding search results; application code has no reason to call it.
func (i *Instance) SetScore(score float64) {
	i.score = score
	i.hasScore = true
}

// Clone returns a deep-enough copy: the value map is copied, the schema is
// shared (it is immutable).
func (i *Instance) Clone() *Instance {
	values := make(map[string]any, len(i.values))
	for k, v := range i.values {
		values[k] = v
	}
	return &Instance{
		schema: i.schema, values: values,
		id: i.id, hasID: i.hasID,
		score: i.score, hasScore: i.hasScore,
	}
}

// InsertValues materialises the row for insertion: every non-key field
// must be set or declare a default. The returned map holds canonical
// values keyed by field name, defaults applied. Missing fields wrap
// ErrValidation.
func (i *Instance) InsertValues() (map[string]any, error) {
	out := make(map[string]any, len(i.schema.fields))
	for _, f := range i.schema.fields {
		if f.spec.kind == KindPrimaryKey {
			continue
		}
		if v, ok := i.values[f.name]; ok {
			out[f.name] = v
			continue
		}
		if f.spec.hasDefault {
			coerced, err := coerceValue(f.spec.kind, f.spec, f.spec.defaultVal)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: default value: %v", ErrValidation, f.name, err)
			}
			out[f.name] = coerced
			continue
		}
		return nil, fmt.Errorf("%w: field %q is unset and has no default", ErrValidation, f.name)
	}
	return out, nil
}

// coerceValue converts v to the canonical Go representation for the kind,
// validating storage constraints on the way.
func coerceValue(kind Kind, spec FieldSpec, v any) (any, error) {
	switch kind {
	case KindVarChar:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		if spec.maxLength > 0 && len(s) > spec.maxLength {
			return nil, fmt.Errorf("value length %d exceeds max length %d", len(s), spec.maxLength)
		}
		return s, nil

	case KindInt64, KindPrimaryKey:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, fmt.Errorf("expected integer, got %T", v)

	case KindFloat64:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
		return nil, fmt.Errorf("expected float, got %T", v)

	case KindFloatVector:
		var vec []float32
		switch raw := v.(type) {
		case []float32:
			vec = append([]float32(nil), raw...)
		case []float64:
			vec = make([]float32, len(raw))
			for idx, x := range raw {
				vec[idx] = float32(x)
			}
		default:
			return nil, fmt.Errorf("expected []float32, got %T", v)
		}
		if len(vec) != spec.dim {
			return nil, fmt.Errorf("vector length %d does not match declared dimension %d", len(vec), spec.dim)
		}
		return vec, nil

	case KindBinaryVector:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T", v)
		}
		if len(b) != spec.dim/8 {
			return nil, fmt.Errorf("binary vector length %d bytes does not match declared dimension %d bits",
				len(b), spec.dim)
		}
		return append([]byte(nil), b...), nil
	}
	return nil, fmt.Errorf("unsupported field kind %s", kind)
}

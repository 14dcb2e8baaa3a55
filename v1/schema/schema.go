package schema

import (
	"fmt"
	"regexp"

	"github.com/piercefreeman/vectordb-orm/v1/expr"
)

var fieldNameRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Def pairs a field name with its descriptor. Use F for terse declarations.
type Def struct {
	Name string
	Spec FieldSpec
}

// F builds a field definition.
func F(name string, spec FieldSpec) Def { return Def{Name: name, Spec: spec} }

// Field is a named, validated field bound to a schema. Its comparison
// methods author expression nodes without a query language:
//
//	sch.MustField("visits").Gt(int64(100))
type Field struct {
	name string
	spec FieldSpec
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Spec returns the field descriptor.
func (f *Field) Spec() FieldSpec { return f.spec }

// Kind returns the field's semantic kind.
func (f *Field) Kind() Kind { return f.spec.kind }

// Eq builds a field == value comparison.
func (f *Field) Eq(v any) *expr.Comparison { return expr.Eq(f.name, v) }

// Ne builds a field != value comparison.
func (f *Field) Ne(v any) *expr.Comparison { return expr.Ne(f.name, v) }

// Gt builds a field > value comparison.
func (f *Field) Gt(v any) *expr.Comparison { return expr.Gt(f.name, v) }

// Gte builds a field >= value comparison.
func (f *Field) Gte(v any) *expr.Comparison { return expr.Gte(f.name, v) }

// Lt builds a field < value comparison.
func (f *Field) Lt(v any) *expr.Comparison { return expr.Lt(f.name, v) }

// Lte builds a field <= value comparison.
func (f *Field) Lte(v any) *expr.Comparison { return expr.Lte(f.name, v) }

// Schema is the immutable, ordered description of one vector-search
// collection. Build it once at startup with New and share it freely;
// it is never mutated afterwards.
type Schema struct {
	collection string
	fields     []*Field
	byName     map[string]*Field
	primary    *Field
	vectors    []*Field
}

// New validates the declarations and builds a Schema.
//
// Descriptor-level faults (bad dimension, bad index parameters) wrap
// ErrConfig; structural faults (missing or duplicate primary key, reserved
// or duplicate names, index/element-type mismatch) wrap ErrSchema.
func New(collection string, defs ...Def) (*Schema, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name cannot be empty", ErrSchema)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: collection %q declares no fields", ErrSchema, collection)
	}

	s := &Schema{
		collection: collection,
		fields:     make([]*Field, 0, len(defs)),
		byName:     make(map[string]*Field, len(defs)),
	}

	for _, def := range defs {
		if err := def.Spec.err; err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrConfig, def.Name, err)
		}
		if !fieldNameRE.MatchString(def.Name) {
			return nil, fmt.Errorf("%w: field name %q is reserved or malformed", ErrSchema, def.Name)
		}
		if _, dup := s.byName[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrSchema, def.Name)
		}

		spec := def.Spec
		if spec.kind.Vector() {
			if !spec.hasIndex {
				spec.index = defaultIndex(spec.kind)
				spec.hasIndex = true
			}
			if spec.index.Binary() != (spec.kind == KindBinaryVector) {
				return nil, fmt.Errorf("%w: field %q: index %s is incompatible with %s element type",
					ErrSchema, def.Name, spec.index.Kind(), spec.kind)
			}
		}
		if spec.hasDefault {
			if _, err := coerceValue(spec.kind, spec, spec.defaultVal); err != nil {
				return nil, fmt.Errorf("%w: field %q: default value: %v", ErrSchema, def.Name, err)
			}
		}

		f := &Field{name: def.Name, spec: spec}
		s.fields = append(s.fields, f)
		s.byName[def.Name] = f

		switch spec.kind {
		case KindPrimaryKey:
			if s.primary != nil {
				return nil, fmt.Errorf("%w: collection %q declares multiple primary keys (%q, %q)",
					ErrSchema, collection, s.primary.name, def.Name)
			}
			s.primary = f
		case KindFloatVector, KindBinaryVector:
			s.vectors = append(s.vectors, f)
		}
	}

	if s.primary == nil {
		return nil, fmt.Errorf("%w: collection %q declares no primary key", ErrSchema, collection)
	}
	return s, nil
}

// MustNew is New that panics on error, for package-level declarations.
func MustNew(collection string, defs ...Def) *Schema {
	s, err := New(collection, defs...)
	if err != nil {
		panic(err)
	}
	return s
}

func defaultIndex(kind Kind) Index {
	if kind == KindBinaryVector {
		return BinFlat(MetricJaccard)
	}
	return Flat(MetricL2)
}

// Collection returns the backend collection name.
func (s *Schema) Collection() string { return s.collection }

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// MustField is Field that panics on an unknown name, for use in
// declarations where the name is a literal.
func (s *Schema) MustField(name string) *Field {
	f, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("schema: collection %q has no field %q", s.collection, name))
	}
	return f
}

// PrimaryKey returns the schema's primary-key field.
func (s *Schema) PrimaryKey() *Field { return s.primary }

// VectorFields returns the vector fields in declaration order.
func (s *Schema) VectorFields() []*Field {
	out := make([]*Field, len(s.vectors))
	copy(out, s.vectors)
	return out
}

// ScalarFields returns the non-vector, non-key fields in declaration order.
func (s *Schema) ScalarFields() []*Field {
	var out []*Field
	for _, f := range s.fields {
		if !f.spec.kind.Vector() && f.spec.kind != KindPrimaryKey {
			out = append(out, f)
		}
	}
	return out
}

// ValidateNode checks an expression tree against this schema: every
// comparison must reference a declared non-vector field, use an operator
// legal for that field's kind, and carry a literal of the matching type.
// Unknown fields wrap ErrSchema, the rest wrap ErrValidation.
func (s *Schema) ValidateNode(n expr.Node) error {
	var firstErr error
	expr.Walk(n, func(c *expr.Comparison) {
		if firstErr != nil {
			return
		}
		firstErr = s.validateComparison(c)
	})
	return firstErr
}

func (s *Schema) validateComparison(c *expr.Comparison) error {
	f, ok := s.byName[c.Field]
	if !ok {
		return fmt.Errorf("%w: collection %q has no field %q", ErrSchema, s.collection, c.Field)
	}
	switch f.spec.kind {
	case KindFloatVector, KindBinaryVector:
		return fmt.Errorf("%w: field %q: vector fields cannot be filtered, use similarity ordering",
			ErrValidation, c.Field)
	case KindVarChar:
		if c.Op != expr.OpEq && c.Op != expr.OpNe {
			return fmt.Errorf("%w: field %q: operator %s not supported on varchar fields",
				ErrValidation, c.Field, c.Op)
		}
	}
	kind := f.spec.kind
	if kind == KindPrimaryKey {
		kind = KindInt64
	}
	if _, err := coerceValue(kind, f.spec, c.Value); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrValidation, c.Field, err)
	}
	return nil
}

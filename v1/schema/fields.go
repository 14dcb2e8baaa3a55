package schema

import "fmt"

// Kind is the semantic kind of a schema field.
type Kind int

const (
	// KindPrimaryKey is the server-assigned int64 identifier. Exactly one
	// per schema; never set by application code.
	KindPrimaryKey Kind = iota
	KindVarChar
	KindInt64
	KindFloat64
	KindFloatVector
	KindBinaryVector
)

func (k Kind) String() string {
	switch k {
	case KindPrimaryKey:
		return "primary_key"
	case KindVarChar:
		return "varchar"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindFloatVector:
		return "float_vector"
	case KindBinaryVector:
		return "binary_vector"
	}
	return "unknown"
}

// Vector reports whether the kind stores an embedding.
func (k Kind) Vector() bool { return k == KindFloatVector || k == KindBinaryVector }

// FieldSpec is an inert field descriptor: kind, storage constraints,
// optional index configuration, optional default value. Specs perform no
// I/O; constructor-level faults are recorded and surfaced as a
// configuration error when the schema is built.
type FieldSpec struct {
	kind       Kind
	maxLength  int
	dim        int
	index      Index
	hasIndex   bool
	defaultVal any
	hasDefault bool
	err        error
}

// Kind returns the semantic kind of the descriptor.
func (s FieldSpec) Kind() Kind { return s.kind }

// Dim returns the declared dimensionality for vector descriptors.
func (s FieldSpec) Dim() int { return s.dim }

// MaxLength returns the declared maximum length for varchar descriptors.
func (s FieldSpec) MaxLength() int { return s.maxLength }

// Index returns the index configuration and whether one was declared.
func (s FieldSpec) Index() (Index, bool) { return s.index, s.hasIndex }

// Default returns the declared default value and whether one was declared.
func (s FieldSpec) Default() (any, bool) { return s.defaultVal, s.hasDefault }

// FieldOption customises a scalar field descriptor.
type FieldOption func(*FieldSpec)

// WithDefault declares a default applied on insert when the field is unset.
// The value must match the field's kind; mismatches surface at schema build.
func WithDefault(v any) FieldOption {
	return func(s *FieldSpec) {
		s.defaultVal = v
		s.hasDefault = true
	}
}

// PrimaryKey declares the server-assigned int64 identifier field.
func PrimaryKey() FieldSpec {
	return FieldSpec{kind: KindPrimaryKey}
}

// VarChar declares a bounded text field.
func VarChar(maxLength int, opts ...FieldOption) FieldSpec {
	s := FieldSpec{kind: KindVarChar, maxLength: maxLength}
	if maxLength <= 0 {
		s.err = fmt.Errorf("varchar: max length must be positive, got %d", maxLength)
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Int64 declares a 64-bit integer field.
func Int64(opts ...FieldOption) FieldSpec {
	s := FieldSpec{kind: KindInt64}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Float64 declares a double-precision float field.
func Float64(opts ...FieldOption) FieldSpec {
	s := FieldSpec{kind: KindFloat64}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// FloatVector declares a float32 embedding field of the given
// dimensionality. At most one index may be supplied; without one the
// schema defaults to Flat(MetricL2).
func FloatVector(dim int, index ...Index) FieldSpec {
	s := FieldSpec{kind: KindFloatVector, dim: dim}
	if dim <= 0 {
		s.err = fmt.Errorf("float vector: dimension must be positive, got %d", dim)
	}
	s.err = firstErr(s.err, applyIndex(&s, index))
	return s
}

// BinaryVector declares a packed binary embedding field. dim counts bits
// and must be a multiple of 8; values are dim/8 bytes long. Without an
// index the schema defaults to BinFlat(MetricJaccard).
func BinaryVector(dim int, index ...Index) FieldSpec {
	s := FieldSpec{kind: KindBinaryVector, dim: dim}
	if dim <= 0 {
		s.err = fmt.Errorf("binary vector: dimension must be positive, got %d", dim)
	} else if dim%8 != 0 {
		s.err = fmt.Errorf("binary vector: dimension must be a multiple of 8, got %d", dim)
	}
	s.err = firstErr(s.err, applyIndex(&s, index))
	return s
}

func applyIndex(s *FieldSpec, index []Index) error {
	switch len(index) {
	case 0:
		return nil
	case 1:
		s.index = index[0]
		s.hasIndex = true
		return s.index.Err()
	}
	return fmt.Errorf("%s: at most one index configuration allowed, got %d", s.kind, len(index))
}

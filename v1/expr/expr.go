package expr

// Op is a comparison operator on a single field.
type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

// Node is one element of the canonical filter representation.
// Nodes carry no evaluation semantics of their own; each backend adapter
// compiles them into its native filter format, rejecting constructs the
// engine cannot express.
type Node interface {
	// Equal reports structural equality with another node. Identity is
	// irrelevant: two independently built trees with the same shape and
	// literals are equal.
	Equal(Node) bool

	isNode()
}

// Comparison compares a named field against a literal value.
type Comparison struct {
	Field string
	Op    Op
	Value any
}

func (c *Comparison) isNode() {}

func (c *Comparison) Equal(other Node) bool {
	o, ok := other.(*Comparison)
	if !ok {
		return false
	}
	return c.Field == o.Field && c.Op == o.Op && literalEqual(c.Value, o.Value)
}

// Conjunction requires all operands to match (AND).
type Conjunction struct {
	Operands []Node
}

func (c *Conjunction) isNode() {}

func (c *Conjunction) Equal(other Node) bool {
	o, ok := other.(*Conjunction)
	if !ok {
		return false
	}
	return operandsEqual(c.Operands, o.Operands)
}

// Disjunction requires at least one operand to match (OR).
type Disjunction struct {
	Operands []Node
}

func (d *Disjunction) isNode() {}

func (d *Disjunction) Equal(other Node) bool {
	o, ok := other.(*Disjunction)
	if !ok {
		return false
	}
	return operandsEqual(d.Operands, o.Operands)
}

// ── Constructors ─────────────────────────────────────────────────────────────

// Eq builds a field == value comparison.
func Eq(field string, value any) *Comparison { return &Comparison{Field: field, Op: OpEq, Value: value} }

// Ne builds a field != value comparison.
func Ne(field string, value any) *Comparison { return &Comparison{Field: field, Op: OpNe, Value: value} }

// Gt builds a field > value comparison.
func Gt(field string, value any) *Comparison { return &Comparison{Field: field, Op: OpGt, Value: value} }

// Gte builds a field >= value comparison.
func Gte(field string, value any) *Comparison {
	return &Comparison{Field: field, Op: OpGte, Value: value}
}

// Lt builds a field < value comparison.
func Lt(field string, value any) *Comparison { return &Comparison{Field: field, Op: OpLt, Value: value} }

// Lte builds a field <= value comparison.
func Lte(field string, value any) *Comparison {
	return &Comparison{Field: field, Op: OpLte, Value: value}
}

// And combines nodes conjunctively. Nil operands are dropped, a single
// operand is returned as-is, and nested conjunctions are flattened so that
// repeated filter calls accumulate into one level.
func And(nodes ...Node) Node {
	flat := flatten[*Conjunction](nodes)
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Conjunction{Operands: flat}
}

// Or combines nodes disjunctively, flattening nested disjunctions.
func Or(nodes ...Node) Node {
	flat := flatten[*Disjunction](nodes)
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Disjunction{Operands: flat}
}

func flatten[T Node](nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		switch v := n.(type) {
		case *Conjunction:
			if _, same := any(v).(T); same {
				out = append(out, v.Operands...)
				continue
			}
		case *Disjunction:
			if _, same := any(v).(T); same {
				out = append(out, v.Operands...)
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Fields returns the distinct field names referenced anywhere in the tree,
// in first-seen order.
func Fields(n Node) []string {
	var out []string
	seen := make(map[string]struct{})
	Walk(n, func(c *Comparison) {
		if _, ok := seen[c.Field]; ok {
			return
		}
		seen[c.Field] = struct{}{}
		out = append(out, c.Field)
	})
	return out
}

// Walk visits every comparison leaf in depth-first order.
func Walk(n Node, visit func(*Comparison)) {
	switch v := n.(type) {
	case nil:
	case *Comparison:
		visit(v)
	case *Conjunction:
		for _, op := range v.Operands {
			Walk(op, visit)
		}
	case *Disjunction:
		for _, op := range v.Operands {
			Walk(op, visit)
		}
	}
}

func operandsEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// literalEqual compares comparison literals, treating numeric values of
// different Go types as equal when they represent the same number. Query
// code routinely mixes int and int64 literals for the same column.
func literalEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

package expr

import (
	"reflect"
	"testing"
)

func TestComparisonEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Node
		want bool
	}{
		{"same comparison", Eq("title", "x"), Eq("title", "x"), true},
		{"different field", Eq("title", "x"), Eq("name", "x"), false},
		{"different operator", Eq("visits", 5), Gt("visits", 5), false},
		{"different literal", Eq("visits", 5), Eq("visits", 6), false},
		{"int vs int64 literal", Eq("visits", 5), Eq("visits", int64(5)), true},
		{"int vs float literal", Eq("score", 5), Eq("score", 5.0), true},
		{"string vs int literal", Eq("title", "5"), Eq("title", 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructuralEqualityIgnoresIdentity(t *testing.T) {
	build := func() Node {
		return And(Eq("a", 1), Or(Eq("b", 2), Eq("c", 3)))
	}
	if !build().Equal(build()) {
		t.Error("independently built identical trees must compare equal")
	}
}

func TestConjunctionNotEqualDisjunction(t *testing.T) {
	a := And(Eq("a", 1), Eq("b", 2))
	b := Or(Eq("a", 1), Eq("b", 2))
	if a.Equal(b) {
		t.Error("AND and OR of the same operands must not compare equal")
	}
}

func TestAndFlattens(t *testing.T) {
	n := And(And(Eq("a", 1), Eq("b", 2)), Eq("c", 3))
	conj, ok := n.(*Conjunction)
	if !ok {
		t.Fatalf("expected *Conjunction, got %T", n)
	}
	if len(conj.Operands) != 3 {
		t.Errorf("expected 3 flattened operands, got %d", len(conj.Operands))
	}
}

func TestOrFlattens(t *testing.T) {
	n := Or(Or(Eq("a", 1), Eq("b", 2)), Eq("c", 3))
	disj, ok := n.(*Disjunction)
	if !ok {
		t.Fatalf("expected *Disjunction, got %T", n)
	}
	if len(disj.Operands) != 3 {
		t.Errorf("expected 3 flattened operands, got %d", len(disj.Operands))
	}
}

func TestAndDoesNotFlattenOr(t *testing.T) {
	n := And(Or(Eq("a", 1), Eq("b", 2)), Eq("c", 3))
	conj, ok := n.(*Conjunction)
	if !ok {
		t.Fatalf("expected *Conjunction, got %T", n)
	}
	if len(conj.Operands) != 2 {
		t.Errorf("expected nested OR to stay one operand, got %d", len(conj.Operands))
	}
}

func TestAndDropsNils(t *testing.T) {
	if n := And(nil, nil); n != nil {
		t.Errorf("And of nils should be nil, got %v", n)
	}
	if n := And(nil, Eq("a", 1)); !n.Equal(Eq("a", 1)) {
		t.Errorf("And with one live operand should return it as-is, got %v", n)
	}
}

func TestFields(t *testing.T) {
	n := And(
		Eq("title", "x"),
		Or(Gt("visits", 5), Eq("title", "y")),
		Lte("score", 0.5),
	)
	got := Fields(n)
	want := []string{"title", "visits", "score"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields = %v, want %v", got, want)
	}
}

func TestFieldsNil(t *testing.T) {
	if got := Fields(nil); got != nil {
		t.Errorf("Fields(nil) = %v, want nil", got)
	}
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	n := And(Eq("a", 1), Or(Eq("b", 2), Eq("c", 3)))
	var visited []string
	Walk(n, func(c *Comparison) { visited = append(visited, c.Field) })
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("Walk order = %v, want %v", visited, want)
	}
}

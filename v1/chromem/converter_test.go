package chromem

import (
	"errors"
	"testing"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/expr"
	"github.com/piercefreeman/vectordb-orm/v1/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New("notes",
		schema.F("id", schema.PrimaryKey()),
		schema.F("title", schema.VarChar(128)),
		schema.F("visits", schema.Int64()),
		schema.F("score", schema.Float64()),
		schema.F("embedding", schema.FloatVector(4, schema.Flat(schema.MetricCosine))),
	)
	if err != nil {
		t.Fatalf("building schema: %v", err)
	}
	return sch
}

func TestVectorFieldRequiresCosine(t *testing.T) {
	sch := schema.MustNew("l2",
		schema.F("id", schema.PrimaryKey()),
		schema.F("embedding", schema.FloatVector(4, schema.Flat(schema.MetricL2))),
	)
	if _, err := vectorField(sch); !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestVectorFieldRejectsBinaryVectors(t *testing.T) {
	sch := schema.MustNew("bits",
		schema.F("id", schema.PrimaryKey()),
		schema.F("bits", schema.BinaryVector(64)),
	)
	if _, err := vectorField(sch); !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestNewDocIDNonNegative(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if id := newDocID(); id < 0 {
			t.Fatalf("negative document ID %d", id)
		}
	}
}

func TestEncodeScalar(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"hello", "hello"},
		{int64(42), "42"},
		{float64(0.5), "0.5"},
		{float64(3), "3"},
	}
	for _, tt := range tests {
		got, err := encodeScalar(tt.value)
		if err != nil {
			t.Errorf("encodeScalar(%v): %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("encodeScalar(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestCompileWhereFlatConjunction(t *testing.T) {
	sch := testSchema(t)
	where, err := compileWhere(sch, expr.And(
		expr.Eq("title", "intro"),
		expr.Eq("visits", int64(42)),
	))
	if err != nil {
		t.Fatalf("compileWhere: %v", err)
	}
	if len(where) != 2 {
		t.Fatalf("expected 2 entries, got %v", where)
	}
	if where["title"] != "intro" || where["visits"] != "42" {
		t.Errorf("unexpected where map %v", where)
	}
}

func TestCompileWhereNil(t *testing.T) {
	where, err := compileWhere(testSchema(t), nil)
	if err != nil {
		t.Fatalf("compileWhere(nil): %v", err)
	}
	if where != nil {
		t.Errorf("expected nil map, got %v", where)
	}
}

func TestCompileWhereMatchesStoredEncoding(t *testing.T) {
	// A filter literal widened from int must compare equal to the stored
	// int64 encoding.
	where, err := compileWhere(testSchema(t), expr.Eq("visits", 42))
	if err != nil {
		t.Fatalf("compileWhere: %v", err)
	}
	if where["visits"] != "42" {
		t.Errorf("expected %q, got %q", "42", where["visits"])
	}
}

func TestCompileWhereRejectsDisjunction(t *testing.T) {
	_, err := compileWhere(testSchema(t), expr.Or(
		expr.Eq("title", "a"),
		expr.Eq("title", "b"),
	))
	if !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestCompileWhereRejectsOrderedComparisons(t *testing.T) {
	_, err := compileWhere(testSchema(t), expr.Gt("visits", int64(5)))
	if !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestCompileWhereRejectsNegation(t *testing.T) {
	_, err := compileWhere(testSchema(t), expr.Ne("title", "draft"))
	if !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestCompileWhereRejectsDuplicateField(t *testing.T) {
	_, err := compileWhere(testSchema(t), expr.And(
		expr.Eq("title", "a"),
		expr.Eq("title", "b"),
	))
	if !errors.Is(err, backend.ErrTranslation) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestDecodeMetadataRoundTrip(t *testing.T) {
	sch := testSchema(t)
	inst, err := decodeMetadata(sch, "99", map[string]string{
		"title":  "intro",
		"visits": "42",
		"score":  "0.75",
	})
	if err != nil {
		t.Fatalf("decodeMetadata: %v", err)
	}

	id, ok := inst.ID()
	if !ok || id != 99 {
		t.Errorf("expected ID 99, got %d (ok=%v)", id, ok)
	}
	if got, _ := inst.Get("title"); got != "intro" {
		t.Errorf("title = %v", got)
	}
	if got, _ := inst.Get("visits"); got != int64(42) {
		t.Errorf("visits = %v", got)
	}
	if got, _ := inst.Get("score"); got != 0.75 {
		t.Errorf("score = %v", got)
	}
}

func TestDecodeMetadataMalformedID(t *testing.T) {
	if _, err := decodeMetadata(testSchema(t), "not-a-number", nil); err == nil {
		t.Fatal("expected error for malformed document ID")
	}
}

package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestInstanceSetAndGet(t *testing.T) {
	sch := testSchema(t)
	inst := sch.NewInstance()

	if err := inst.Set("title", "hello"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := inst.Set("visits", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := inst.Set("embedding", []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if v, _ := inst.Get("title"); v != "hello" {
		t.Errorf("title = %v", v)
	}
	// Canonical form: plain int comes back as int64.
	if v, _ := inst.Get("visits"); v != int64(42) {
		t.Errorf("visits = %v (%T)", v, v)
	}
	if _, ok := inst.Get("score"); ok {
		t.Error("unset field should not report a value")
	}
}

func TestInstanceSetUnknownField(t *testing.T) {
	inst := testSchema(t).NewInstance()
	if err := inst.Set("missing", 1); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestInstanceSetRejectsPrimaryKey(t *testing.T) {
	inst := testSchema(t).NewInstance()
	if err := inst.Set("id", int64(1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInstanceSetValidation(t *testing.T) {
	sch := testSchema(t)
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"wrong scalar type", "visits", "many"},
		{"varchar too long", "title", string(make([]byte, 65))},
		{"vector too short", "embedding", []float32{1, 2}},
		{"vector too long", "embedding", []float32{1, 2, 3, 4, 5}},
		{"wrong vector element type", "embedding", []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := sch.NewInstance()
			if err := inst.Set(tt.field, tt.value); !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInstanceSetConvertsFloat64Vector(t *testing.T) {
	inst := testSchema(t).NewInstance()
	if err := inst.Set("embedding", []float64{1, 2, 3, 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := inst.Get("embedding")
	if !reflect.DeepEqual(v, []float32{1, 2, 3, 4}) {
		t.Errorf("embedding = %v (%T)", v, v)
	}
}

func TestInstanceSetCopiesVectorInput(t *testing.T) {
	inst := testSchema(t).NewInstance()
	vec := []float32{1, 2, 3, 4}
	if err := inst.Set("embedding", vec); err != nil {
		t.Fatalf("Set: %v", err)
	}

	vec[0] = 99
	v, _ := inst.Get("embedding")
	if !reflect.DeepEqual(v, []float32{1, 2, 3, 4}) {
		t.Errorf("mutating the caller's slice leaked into the stored value: %v", v)
	}
}

func TestInstanceBinaryVector(t *testing.T) {
	sch := MustNew("bits",
		F("id", PrimaryKey()),
		F("fingerprint", BinaryVector(64)),
	)
	inst := sch.NewInstance()

	if err := inst.Set("fingerprint", make([]byte, 8)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := inst.Set("fingerprint", make([]byte, 7)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for short binary vector, got %v", err)
	}
}

func TestInsertValuesAppliesDefaults(t *testing.T) {
	sch := testSchema(t)
	inst := sch.NewInstance()
	inst.MustSet("title", "x").
		MustSet("visits", int64(1)).
		MustSet("embedding", []float32{1, 2, 3, 4})

	values, err := inst.InsertValues()
	if err != nil {
		t.Fatalf("InsertValues: %v", err)
	}
	if values["score"] != 0.0 {
		t.Errorf("score default = %v", values["score"])
	}
	if _, hasKey := values["id"]; hasKey {
		t.Error("primary key must not appear in insert values")
	}
}

func TestInsertValuesRejectsUnsetFields(t *testing.T) {
	sch := testSchema(t)
	inst := sch.NewInstance()
	inst.MustSet("title", "x")

	if _, err := inst.InsertValues(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInstanceID(t *testing.T) {
	inst := testSchema(t).NewInstance()
	if _, ok := inst.ID(); ok {
		t.Error("fresh instance must have no primary key")
	}
	inst.SetID(99)
	id, ok := inst.ID()
	if !ok || id != 99 {
		t.Errorf("ID = %d (ok=%v)", id, ok)
	}
}

func TestInstanceScore(t *testing.T) {
	inst := testSchema(t).NewInstance()
	if _, ok := inst.Score(); ok {
		t.Error("fresh instance must have no similarity score")
	}
	inst.SetScore(0.87)
	score, ok := inst.Score()
	if !ok || score != 0.87 {
		t.Errorf("Score = %v (ok=%v)", score, ok)
	}

	clone := inst.Clone()
	score, ok = clone.Score()
	if !ok || score != 0.87 {
		t.Errorf("clone Score = %v (ok=%v)", score, ok)
	}
}

func TestInstanceClone(t *testing.T) {
	inst := testSchema(t).NewInstance()
	inst.MustSet("title", "original")
	inst.SetID(7)

	clone := inst.Clone()
	if err := clone.Set("title", "changed"); err != nil {
		t.Fatalf("Set on clone: %v", err)
	}

	if v, _ := inst.Get("title"); v != "original" {
		t.Errorf("mutating the clone leaked into the original: %v", v)
	}
	id, ok := clone.ID()
	if !ok || id != 7 {
		t.Errorf("clone ID = %d (ok=%v)", id, ok)
	}
}

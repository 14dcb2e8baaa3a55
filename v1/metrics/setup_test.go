package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

func TestObserveOperationSuccess(t *testing.T) {
	o := NewObserver(prometheus.NewRegistry())

	o.ObserveOperation(observability.OperationContext{
		Component:  "milvus",
		Operation:  "insert",
		Collection: "documents",
		Duration:   25 * time.Millisecond,
		Size:       5,
	})

	if got := testutil.ToFloat64(o.operations.WithLabelValues("milvus", "insert", "ok")); got != 1 {
		t.Errorf("ok counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(o.rows.WithLabelValues("milvus", "insert")); got != 5 {
		t.Errorf("rows counter = %v, want 5", got)
	}
}

func TestObserveOperationError(t *testing.T) {
	o := NewObserver(prometheus.NewRegistry())

	o.ObserveOperation(observability.OperationContext{
		Component: "qdrant",
		Operation: "execute",
		Duration:  time.Millisecond,
		Error:     errors.New("unavailable"),
	})

	if got := testutil.ToFloat64(o.operations.WithLabelValues("qdrant", "execute", "error")); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(o.operations.WithLabelValues("qdrant", "execute", "ok")); got != 0 {
		t.Errorf("ok counter = %v, want 0", got)
	}
	if got := testutil.ToFloat64(o.rows.WithLabelValues("qdrant", "execute")); got != 0 {
		t.Errorf("rows counter = %v, want 0 when size is zero", got)
	}
}

func TestObserverRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewObserver(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	NewObserver(reg)
}

package backend

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRunChunksCoversAllItems(t *testing.T) {
	var mu sync.Mutex
	seen := make([]bool, 105)

	completed, err := RunChunks(context.Background(), 105, 10, 4,
		func(ctx context.Context, start, end int) error {
			mu.Lock()
			defer mu.Unlock()
			for i := start; i < end; i++ {
				if seen[i] {
					t.Errorf("item %d dispatched twice", i)
				}
				seen[i] = true
			}
			return nil
		}, nil)
	if err != nil {
		t.Fatalf("RunChunks: %v", err)
	}
	if completed != 105 {
		t.Errorf("completed = %d, want 105", completed)
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("item %d never dispatched", i)
		}
	}
}

func TestRunChunksProgressStrictlyIncreasing(t *testing.T) {
	var reports []int
	completed, err := RunChunks(context.Background(), 100, 7, 4,
		func(ctx context.Context, start, end int) error { return nil },
		func(completed, total int) {
			if total != 100 {
				t.Errorf("total = %d, want 100", total)
			}
			reports = append(reports, completed)
		})
	if err != nil {
		t.Fatalf("RunChunks: %v", err)
	}
	if completed != 100 {
		t.Errorf("completed = %d, want 100", completed)
	}

	if len(reports) == 0 {
		t.Fatal("no progress reports")
	}
	prev := 0
	for _, r := range reports {
		if r <= prev {
			t.Fatalf("progress not strictly increasing: %v", reports)
		}
		prev = r
	}
	if reports[len(reports)-1] != 100 {
		t.Errorf("final report = %d, want 100", reports[len(reports)-1])
	}
}

func TestRunChunksFailureReturnsConfirmedPrefix(t *testing.T) {
	boom := errors.New("chunk failed")

	// Serial execution so exactly the chunks before the failure complete.
	completed, err := RunChunks(context.Background(), 50, 10, 1,
		func(ctx context.Context, start, end int) error {
			if start == 30 {
				return boom
			}
			return nil
		}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected chunk error, got %v", err)
	}
	if completed != 30 {
		t.Errorf("completed = %d, want 30", completed)
	}
}

func TestRunChunksFirstChunkFailure(t *testing.T) {
	completed, err := RunChunks(context.Background(), 20, 10, 1,
		func(ctx context.Context, start, end int) error {
			return errors.New("nothing stored")
		}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if completed != 0 {
		t.Errorf("completed = %d, want 0", completed)
	}
}

func TestRunChunksEmptyInput(t *testing.T) {
	completed, err := RunChunks(context.Background(), 0, 10, 4,
		func(ctx context.Context, start, end int) error {
			t.Error("chunk dispatched for empty input")
			return nil
		}, nil)
	if err != nil || completed != 0 {
		t.Errorf("completed = %d, err = %v", completed, err)
	}
}

func TestRunChunksDefaultsChunkSize(t *testing.T) {
	var calls int
	var mu sync.Mutex
	completed, err := RunChunks(context.Background(), 250, 0, 0,
		func(ctx context.Context, start, end int) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil
		}, nil)
	if err != nil {
		t.Fatalf("RunChunks: %v", err)
	}
	if completed != 250 {
		t.Errorf("completed = %d, want 250", completed)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 with the default chunk size", calls)
	}
}

func TestRunChunksContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunChunks(ctx, 100, 10, 2,
		func(ctx context.Context, start, end int) error {
			return ctx.Err()
		}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestOperationErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("insert", "documents", cause)

	if !errors.Is(err, ErrBackend) {
		t.Error("OperationError must match ErrBackend")
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError must expose its cause")
	}
	if errors.Is(err, ErrTranslation) {
		t.Error("OperationError must not match ErrTranslation")
	}
	if !IsBackendError(err) || IsTranslationError(err) {
		t.Error("helper misclassifies OperationError")
	}
}

func TestBatchErrorUnwraps(t *testing.T) {
	cause := NewOperationError("insert", "documents", errors.New("timeout"))
	err := &BatchError{Collection: "documents", Completed: 30, Err: cause}

	if !errors.Is(err, ErrBackend) {
		t.Error("BatchError must unwrap to the backend sentinel")
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) || batchErr.Completed != 30 {
		t.Errorf("errors.As failed or wrong count: %+v", batchErr)
	}
}

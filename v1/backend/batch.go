package backend

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is used when an adapter config does not set one.
const DefaultChunkSize = 100

// ChunkFunc inserts the half-open item range [start, end).
type ChunkFunc func(ctx context.Context, start, end int) error

// RunChunks splits [0, total) into chunkSize-sized chunks and dispatches
// them through fn with at most parallelism concurrent calls.
//
// The progress sink only ever sees the confirmed prefix: the contiguous
// run of completed chunks from the front. That keeps reported counts
// strictly increasing regardless of chunk completion order, and on failure
// the returned count is exactly the number of rows known to be stored.
func RunChunks(ctx context.Context, total, chunkSize, parallelism int, fn ChunkFunc, progress Progress) (int, error) {
	if total == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	chunks := (total + chunkSize - 1) / chunkSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var mu sync.Mutex
	done := make([]bool, chunks)
	prefix := 0    // chunks confirmed from the front
	confirmed := 0 // items inside the confirmed prefix
	reported := 0

	for c := 0; c < chunks; c++ {
		start := c * chunkSize
		end := min(start+chunkSize, total)
		g.Go(func() error {
			if err := fn(gctx, start, end); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			done[c] = true
			for prefix < chunks && done[prefix] {
				prefix++
				confirmed = min(prefix*chunkSize, total)
			}
			// Invoked under the lock so sinks see counts in order.
			if progress != nil && confirmed > reported {
				reported = confirmed
				progress(confirmed, total)
			}
			return nil
		})
	}

	err := g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return confirmed, err
}

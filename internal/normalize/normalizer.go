package normalize

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"go-datalake-etl/internal/model"
)

const defaultBatchSize = 100

// Normalizer cleans raw records in parallel, isolating per-record
// failures as failure markers instead of aborting the batch.
type Normalizer struct {
	Workers int
}

// New builds a normalizer; workers defaults to twice the available
// parallelism when non-positive
func New(workers int) *Normalizer {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &Normalizer{Workers: workers}
}

// chunk is a contiguous window of the input, tagged with its offset so
// results land back in input order
type chunk struct {
	offset  int
	records []model.Record
}

// Normalize partitions records into contiguous chunks of batchSize and
// fans them out over a fixed worker pool. Workers share no state: each
// writes only into its own disjoint window of the result slice, so the
// output always has the same length and order as the input. The context
// aborts chunk submission; an aborted call returns the context error.
func (n *Normalizer) Normalize(ctx context.Context, records []model.Record, batchSize int) ([]model.NormalizedRecord, error) {
	if len(records) == 0 {
		return []model.NormalizedRecord{}, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	out := make([]model.NormalizedRecord, len(records))
	chunks := make(chan chunk)

	var wg sync.WaitGroup
	for i := 0; i < n.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for c := range chunks {
				processChunk(workerID, c, out)
			}
		}(i)
	}

	var cancelled error
feed:
	for offset := 0; offset < len(records); offset += batchSize {
		end := offset + batchSize
		if end > len(records) {
			end = len(records)
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case chunks <- chunk{offset: offset, records: records[offset:end]}:
		}
	}
	close(chunks)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return out, nil
}

// processChunk normalizes every record in the chunk. A panic inside a
// chunk is converted into failure markers for that chunk only; sibling
// chunks are unaffected.
func processChunk(workerID int, c chunk, out []model.NormalizedRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ normalize worker %d: chunk at offset %d failed: %v", workerID, c.offset, r)
			for i, rec := range c.records {
				if out[c.offset+i].Record == nil && out[c.offset+i].Error == "" {
					out[c.offset+i] = model.NormalizedRecord{
						ID:           rec["id"],
						Error:        fmt.Sprintf("chunk processing failed: %v", r),
						OriginalData: rec,
					}
				}
			}
		}
	}()

	for i, rec := range c.records {
		out[c.offset+i] = normalizeRecord(rec)
	}
}

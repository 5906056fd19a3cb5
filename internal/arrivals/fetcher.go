package arrivals

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/logging"
)

// DefaultBatchSize is the number of identifiers sent per upstream call.
const DefaultBatchSize = 4

// Upstream is the subset of the Train Tracker client the pipeline needs.
type Upstream interface {
	Arrivals(ctx context.Context, kind cta.IDKind, ids []string) ([]cta.RawArrival, error)
	FollowRun(ctx context.Context, run int) ([]cta.RawArrival, error)
}

// Batches splits ids into consecutive groups of at most size.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

type batchResult struct {
	ids  []string
	etas []cta.RawArrival
	err  error
}

// fetchBatches issues one upstream call per batch, all at once, and waits for
// every call to finish. A failed batch is logged and reported in its result;
// it does not affect its siblings.
func fetchBatches(ctx context.Context, upstream Upstream, kind cta.IDKind, batches [][]string) []batchResult {
	logger := logging.FromContext(ctx).With(slog.String("component", "batch_fetcher"))
	results := make([]batchResult, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			etas, err := upstream.Arrivals(ctx, kind, batch)
			if err != nil {
				logging.LogError(logger, "upstream batch failed", err,
					slog.String("kind", string(kind)),
					slog.String("ids", strings.Join(batch, ",")))
			}
			results[i] = batchResult{ids: batch, etas: etas, err: err}
		}()
	}
	wg.Wait()

	return results
}

// groupBySource attributes each prediction to the identifier that produced it.
// A batch of one id owns every prediction it returned. In larger batches,
// predictions whose source is not among ids are returned separately.
func groupBySource(kind cta.IDKind, ids []string, etas []cta.RawArrival) (map[string][]cta.RawArrival, []cta.RawArrival) {
	grouped := make(map[string][]cta.RawArrival, len(ids))
	for _, id := range ids {
		grouped[id] = nil
	}
	if len(ids) == 1 {
		grouped[ids[0]] = etas
		return grouped, nil
	}

	var unmatched []cta.RawArrival
	for _, eta := range etas {
		source := eta.SourceID(kind)
		if _, ok := grouped[source]; !ok {
			unmatched = append(unmatched, eta)
			continue
		}
		grouped[source] = append(grouped[source], eta)
	}
	return grouped, unmatched
}

// Package arrivals turns caller queries into sorted, display-ready train
// arrivals, serving from a per-identifier cache and fetching only misses.
package arrivals

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ctaboard.trainboard.dev/internal/cache"
	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/logging"
	"ctaboard.trainboard.dev/internal/models"
	"ctaboard.trainboard.dev/internal/utils"
)

// DefaultHolidayRun is the run number probed for the holiday train.
const DefaultHolidayRun = 1225

// Config tunes a Service.
type Config struct {
	BatchSize int
	// HolidayRun is probed on every request; 0 disables the probe.
	HolidayRun int
}

// Service is the fetch/cache/aggregate pipeline.
type Service struct {
	upstream   Upstream
	store      *cache.Store
	batchSize  int
	holidayRun int
	logger     *slog.Logger
}

// NewService wires a Service around an upstream client and cache store.
func NewService(upstream Upstream, store *cache.Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		upstream:   upstream,
		store:      store,
		batchSize:  cfg.BatchSize,
		holidayRun: cfg.HolidayRun,
		logger:     logger.With(slog.String("component", "arrivals_service")),
	}
}

// Store exposes the cache for health reporting.
func (s *Service) Store() *cache.Store {
	return s.store
}

// Arrivals answers q. Identifiers fresh in the cache are served from it; the
// rest are fetched in batches. Failed batches are dropped from the response
// (fail-isolated); the call only fails when nothing could be served at all.
func (s *Service) Arrivals(ctx context.Context, q Query) ([]models.DisplayArrival, error) {
	start := time.Now()
	logger := s.logger
	if id := logging.RequestID(ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}
	ctx = logging.WithLogger(ctx, logger)

	ids := utils.Unique(q.IDs)
	perID := make(map[string][]models.DisplayArrival, len(ids))
	var misses []string
	for _, id := range ids {
		if entry, ok := s.store.Lookup(cache.Key(string(q.Kind), id)); ok {
			perID[id] = entry.Arrivals
			continue
		}
		misses = append(misses, id)
	}
	cacheHits := len(ids) - len(misses)

	batches := Batches(misses, s.batchSize)
	now := s.store.Now()

	var wg sync.WaitGroup
	var results []batchResult
	var holiday []models.DisplayArrival
	if len(batches) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results = fetchBatches(ctx, s.upstream, q.Kind, batches)
		}()
	}
	if s.holidayRun > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			holiday = s.holidayTrain(ctx, now)
		}()
	}
	wg.Wait()

	var unmatched []models.DisplayArrival
	var firstErr error
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}

		grouped, extra := groupBySource(q.Kind, res.ids, res.etas)
		// Per-id entries would omit unattributed predictions, so such a
		// batch is served but not cached.
		cacheable := len(extra) == 0
		if !cacheable {
			logger.Debug("batch returned unattributed predictions; not caching",
				slog.String("ids", strings.Join(res.ids, ",")),
				slog.Int("unattributed", len(extra)))
		}
		for _, id := range res.ids {
			list := make([]models.DisplayArrival, 0, len(grouped[id]))
			for _, raw := range grouped[id] {
				list = append(list, Transform(raw, now))
			}
			if cacheable {
				s.store.Put(cache.Key(string(q.Kind), id), list, now)
			}
			perID[id] = list
		}
		for _, raw := range extra {
			unmatched = append(unmatched, Transform(raw, now))
		}
	}

	if failed > 0 && failed == len(results) && cacheHits == 0 {
		return nil, firstErr
	}

	var combined []models.DisplayArrival
	for _, id := range ids {
		combined = append(combined, perID[id]...)
	}
	combined = append(combined, unmatched...)

	sorted := Filter(combined, q.MinMinutes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ArrivalTime < sorted[j].ArrivalTime
	})

	out := make([]models.DisplayArrival, 0, len(holiday)+len(sorted))
	out = append(out, holiday...)
	out = append(out, sorted...)

	logging.LogOperation(logger, "arrivals_served",
		slog.String("kind", string(q.Kind)),
		slog.Int("identifiers", len(ids)),
		slog.Int("cache_hits", cacheHits),
		slog.Int("upstream_calls", len(batches)),
		slog.Int("failed_batches", failed),
		slog.Int("count", len(out)),
		slog.Duration("duration", time.Since(start)))

	return out, nil
}

// holidayTrain probes the reserved run and returns the synthetic entry to
// prepend, or nothing. Probe failures never fail the request.
func (s *Service) holidayTrain(ctx context.Context, now time.Time) []models.DisplayArrival {
	key := "runnumber-" + strconv.Itoa(s.holidayRun)
	if entry, ok := s.store.Lookup(key); ok {
		return entry.Arrivals
	}

	etas, err := s.upstream.FollowRun(ctx, s.holidayRun)
	var apiErr *cta.APIError
	switch {
	case errors.As(err, &apiErr):
		// Upstream answered: the run is not in service.
		s.store.Put(key, nil, now)
		return nil
	case err != nil:
		logging.LogError(logging.FromContext(ctx), "holiday train probe failed", err,
			slog.Int("run", s.holidayRun))
		return nil
	}

	var entries []models.DisplayArrival
	if len(etas) > 0 {
		entries = []models.DisplayArrival{HolidayEntry(etas[0], now)}
	}
	s.store.Put(key, entries, now)
	return entries
}

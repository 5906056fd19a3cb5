package arrivals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctaboard.trainboard.dev/internal/cta"
)

func TestBatches(t *testing.T) {
	t.Run("five ids in batches of four", func(t *testing.T) {
		got := Batches([]string{"1", "2", "3", "4", "5"}, 4)
		assert.Equal(t, [][]string{{"1", "2", "3", "4"}, {"5"}}, got)
	})

	t.Run("exact multiple", func(t *testing.T) {
		got := Batches([]string{"1", "2", "3", "4", "5", "6", "7", "8"}, 4)
		assert.Equal(t, [][]string{{"1", "2", "3", "4"}, {"5", "6", "7", "8"}}, got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Batches(nil, 4))
	})

	t.Run("non-positive size falls back to default", func(t *testing.T) {
		got := Batches([]string{"1", "2", "3", "4", "5"}, 0)
		assert.Len(t, got, 2)
	})

	t.Run("ceil(n/size) batches", func(t *testing.T) {
		for n := 1; n <= 13; n++ {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprint(i)
			}
			assert.Len(t, Batches(ids, 4), (n+3)/4, "n=%d", n)
		}
	})
}

func TestFetchBatchesIsolatesFailures(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.fail["5"] = assert.AnError
	upstream.etas["1"] = []cta.RawArrival{etaFor(cta.StopID, "1", 3)}

	results := fetchBatches(context.Background(), upstream, cta.StopID, [][]string{{"1", "2", "3", "4"}, {"5"}})
	require.Len(t, results, 2)

	assert.NoError(t, results[0].err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, results[0].ids)
	assert.Len(t, results[0].etas, 1)

	assert.ErrorIs(t, results[1].err, assert.AnError)
	assert.Equal(t, []string{"5"}, results[1].ids)
}

// rendezvousUpstream holds every Arrivals call until want calls are in flight
// at once, so it only answers when batches are fetched concurrently.
type rendezvousUpstream struct {
	mu      sync.Mutex
	want    int
	arrived int
	allIn   chan struct{}
}

func (u *rendezvousUpstream) Arrivals(ctx context.Context, _ cta.IDKind, ids []string) ([]cta.RawArrival, error) {
	u.mu.Lock()
	u.arrived++
	if u.arrived == u.want {
		close(u.allIn)
	}
	u.mu.Unlock()

	select {
	case <-u.allIn:
		return []cta.RawArrival{etaFor(cta.StopID, ids[0], 1)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("batches were not in flight together")
	}
}

func (u *rendezvousUpstream) FollowRun(context.Context, int) ([]cta.RawArrival, error) {
	return nil, nil
}

func TestFetchBatchesRunsConcurrently(t *testing.T) {
	batches := Batches([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13"}, 4)
	require.Len(t, batches, 4)
	upstream := &rendezvousUpstream{want: len(batches), allIn: make(chan struct{})}

	results := fetchBatches(context.Background(), upstream, cta.StopID, batches)

	require.Len(t, results, len(batches))
	for i, res := range results {
		assert.NoError(t, res.err, "batch %d", i)
		assert.Equal(t, batches[i], res.ids)
	}
}

func TestGroupBySourceSingleID(t *testing.T) {
	etas := []cta.RawArrival{etaFor(cta.StopID, "30001", 1), etaFor(cta.StopID, "30002", 2)}

	grouped, unmatched := groupBySource(cta.StopID, []string{"030001"}, etas)

	assert.Empty(t, unmatched)
	assert.Len(t, grouped["030001"], 2)
}

func TestGroupBySource(t *testing.T) {
	etas := []cta.RawArrival{
		etaFor(cta.StationID, "40380", 1),
		etaFor(cta.StationID, "41320", 2),
		etaFor(cta.StationID, "40380", 3),
		etaFor(cta.StationID, "49999", 4),
	}

	grouped, unmatched := groupBySource(cta.StationID, []string{"40380", "41320", "40000"}, etas)

	assert.Len(t, grouped["40380"], 2)
	assert.Len(t, grouped["41320"], 1)
	assert.Contains(t, grouped, "40000", "identifiers without predictions still get a group")
	assert.Empty(t, grouped["40000"])
	require.Len(t, unmatched, 1)
	assert.Equal(t, "49999", unmatched[0].StationID)
}

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctaboard.trainboard.dev/internal/models"
)

func sampleArrivals() []models.DisplayArrival {
	return []models.DisplayArrival{
		{Route: "Brown", RouteNameFull: "Brown Line", ArrivalTime: 2, RouteNumber: "401"},
		{Route: "Purple", RouteNameFull: "Purple Line", ArrivalTime: 6, RouteNumber: "512"},
	}
}

func TestLookupMissing(t *testing.T) {
	store := NewStore(time.Minute, gcache.NewFakeClock())

	_, ok := store.Lookup("stpid-30001")
	assert.False(t, ok)
}

func TestLookupFreshAndStale(t *testing.T) {
	clock := gcache.NewFakeClock()
	store := NewStore(59*time.Second, clock)

	store.Put("stpid-30001", sampleArrivals(), clock.Now())

	entry, ok := store.Lookup("stpid-30001")
	require.True(t, ok)
	assert.Equal(t, sampleArrivals(), entry.Arrivals)
	assert.Equal(t, clock.Now(), entry.FetchedAt)

	clock.Advance(58 * time.Second)
	_, ok = store.Lookup("stpid-30001")
	assert.True(t, ok, "entry should still be fresh just inside the TTL")

	clock.Advance(time.Second)
	_, ok = store.Lookup("stpid-30001")
	assert.False(t, ok, "entry is stale once now-fetchedAt reaches the TTL")

	assert.Equal(t, 1, store.Len(), "stale entries are ignored, not evicted")
}

func TestPutOverwrites(t *testing.T) {
	clock := gcache.NewFakeClock()
	store := NewStore(time.Minute, clock)

	store.Put("mapid-40380", sampleArrivals(), clock.Now())
	clock.Advance(2 * time.Minute)
	store.Put("mapid-40380", sampleArrivals()[:1], clock.Now())

	entry, ok := store.Lookup("mapid-40380")
	require.True(t, ok)
	assert.Len(t, entry.Arrivals, 1)
	assert.Equal(t, clock.Now(), entry.FetchedAt)
	assert.Equal(t, 1, store.Len())
}

func TestPutNilStoresEmptyList(t *testing.T) {
	clock := gcache.NewFakeClock()
	store := NewStore(time.Minute, clock)

	store.Put("stpid-1", nil, clock.Now())

	entry, ok := store.Lookup("stpid-1")
	require.True(t, ok)
	assert.NotNil(t, entry.Arrivals)
	assert.Empty(t, entry.Arrivals)
}

func TestPutCopiesInput(t *testing.T) {
	clock := gcache.NewFakeClock()
	store := NewStore(time.Minute, clock)

	arrivals := sampleArrivals()
	store.Put("stpid-1", arrivals, clock.Now())
	arrivals[0].Route = "mutated"

	entry, ok := store.Lookup("stpid-1")
	require.True(t, ok)
	assert.Equal(t, "Brown", entry.Arrivals[0].Route)
}

func TestDefaults(t *testing.T) {
	store := NewStore(0, nil)
	assert.Equal(t, DefaultTTL, store.TTL())
	assert.WithinDuration(t, time.Now(), store.Now(), time.Second)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "stpid-30001", Key("stpid", "30001"))
	assert.Equal(t, "mapid-40380", Key("mapid", "40380"))
}

func TestConcurrentAccess(t *testing.T) {
	clock := gcache.NewFakeClock()
	store := NewStore(time.Minute, clock)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("stpid-%d", i%5)
			store.Put(key, sampleArrivals(), clock.Now())
			_, _ = store.Lookup(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
	for i := 0; i < 5; i++ {
		entry, ok := store.Lookup(fmt.Sprintf("stpid-%d", i))
		require.True(t, ok)
		assert.Equal(t, sampleArrivals(), entry.Arrivals)
	}
}

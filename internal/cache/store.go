// Package cache holds recently fetched arrivals keyed by query identity.
//
// Freshness is judged when an entry is read: an entry is fresh while
// now-FetchedAt < TTL. Stale entries are never evicted, they are ignored and
// later overwritten by the next successful fetch for the same key.
package cache

import (
	"slices"
	"time"

	"github.com/bluele/gcache"

	"ctaboard.trainboard.dev/internal/models"
)

// DefaultTTL is how long fetched arrivals are served without refetching.
const DefaultTTL = 59 * time.Second

// Entry is a cached arrival list and the time it was fetched.
type Entry struct {
	Arrivals  []models.DisplayArrival
	FetchedAt time.Time
}

// Store is a concurrency-safe key -> Entry map with read-time TTL checks.
// Writers to the same key race and the last write wins.
type Store struct {
	items gcache.Cache
	ttl   time.Duration
	clock gcache.Clock
}

// NewStore creates an unbounded store. A nil clock uses wall-clock time.
func NewStore(ttl time.Duration, clock gcache.Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = gcache.NewRealClock()
	}

	return &Store{
		// size 0 on a simple cache disables capacity eviction.
		items: gcache.New(0).Simple().Clock(clock).Build(),
		ttl:   ttl,
		clock: clock,
	}
}

// Lookup returns the entry for key when it exists and is still fresh.
func (s *Store) Lookup(key string) (Entry, bool) {
	v, err := s.items.GetIFPresent(key)
	if err != nil {
		return Entry{}, false
	}

	entry, ok := v.(Entry)
	if !ok || !s.fresh(entry) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores arrivals under key, replacing any previous entry.
func (s *Store) Put(key string, arrivals []models.DisplayArrival, fetchedAt time.Time) {
	entry := Entry{
		Arrivals:  slices.Clone(arrivals),
		FetchedAt: fetchedAt,
	}
	if entry.Arrivals == nil {
		entry.Arrivals = []models.DisplayArrival{}
	}
	_ = s.items.Set(key, entry)
}

// Now reports the store's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// TTL reports the freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Len counts stored entries, fresh or stale.
func (s *Store) Len() int {
	return s.items.Len(false)
}

func (s *Store) fresh(entry Entry) bool {
	return s.clock.Now().Sub(entry.FetchedAt) < s.ttl
}

// Key builds the cache key for one identifier of the given kind.
func Key(kind, id string) string {
	return kind + "-" + id
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/fish-activity/internal/weather"
)

// ErrNotFound is returned when no fresh forecast is cached for a key.
// It matches weather.ErrCacheMiss.
var ErrNotFound = weather.ErrCacheMiss

type entry struct {
	forecast weather.Forecast
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory forecast cache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key + horizon
	data map[string]entry

	// retention configuration
	ttl        time.Duration // entries older than this are misses (0 = never expire)
	maxEntries int           // max number of cached forecasts (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Set stores a forecast and enforces retention.
func (s *MemoryStore) Set(_ context.Context, key string, forecast weather.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data[key] = entry{forecast: forecast, storedAt: now}

	// Enforce retention by age.
	if s.ttl > 0 {
		for k, e := range s.data {
			if s.expired(e, now) {
				delete(s.data, k)
			}
		}
	}

	// Enforce retention by count, evicting the oldest entries.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		for k, e := range s.data {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		delete(s.data, oldestKey)
	}

	return nil
}

// Get returns the cached forecast for key, or ErrNotFound when it is absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) (weather.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e, s.now()) {
		return weather.Forecast{}, ErrNotFound
	}
	return e.forecast, nil
}

// Len reports the number of cached entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) >= s.ttl
}

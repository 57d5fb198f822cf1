package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/gigaset-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no report is available, or the stored one
	// is older than the configured max age.
	ErrNotFound = errors.New("no forecast report available")
)

// MemoryStore is a concurrency-safe in-memory holder of the latest report.
type MemoryStore struct {
	mu sync.RWMutex

	latest *weather.Report

	// maxAge is the age after which the report is no longer served (0 = unlimited).
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxAge is <= 0, reports never expire.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SaveReport replaces the stored report.
func (s *MemoryStore) SaveReport(report weather.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &report
}

// GetLatest returns the stored report if it is still fresh.
func (s *MemoryStore) GetLatest() (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return weather.Report{}, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(s.latest.GeneratedAt) > s.maxAge {
		return weather.Report{}, ErrNotFound
	}
	return *s.latest, nil
}

var _ weather.Store = (*MemoryStore)(nil)

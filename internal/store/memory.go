package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of
// weather.Store. It mirrors the persistent store's keying exactly: one row
// per (location, date), overwritten on re-ingest. Used by tests and by
// DB-less local runs.
type MemoryStore struct {
	mu sync.RWMutex

	// location id -> date key (YYYY-MM-DD) -> record
	data map[string]map[string]weather.DailyRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]weather.DailyRecord),
	}
}

// UpsertDaily inserts or overwrites the record for (LocationID, Date).
func (s *MemoryStore) UpsertDaily(_ context.Context, rec weather.DailyRecord) error {
	rec.Date = common.DateOnly(rec.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.data[rec.LocationID]
	if !ok {
		days = make(map[string]weather.DailyRecord)
		s.data[rec.LocationID] = days
	}
	days[common.DateKey(rec.Date)] = rec
	return nil
}

// DailyRange returns all records for the location with date >= from, ordered
// ascending by date. A location with no records yields an empty slice.
func (s *MemoryStore) DailyRange(_ context.Context, locationID string, from time.Time) ([]weather.DailyRecord, error) {
	from = common.DateOnly(from)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.DailyRecord, 0)
	for _, rec := range s.data[locationID] {
		if !rec.Date.Before(from) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

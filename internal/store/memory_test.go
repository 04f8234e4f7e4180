package store

import (
	"context"
	"testing"
	"time"

	"github.com/vineyardhq/vineyard-api/internal/weather"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := weather.DailyRecord{LocationID: "loc", Date: day(t, "2025-03-01"), TempHigh: 65, TempLow: 45, GDD: 5}
	second := weather.DailyRecord{LocationID: "loc", Date: day(t, "2025-03-01"), TempHigh: 80, TempLow: 60, GDD: 20}

	if err := s.UpsertDaily(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertDaily(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	recs, err := s.DailyRange(ctx, "loc", day(t, "2025-01-01"))
	if err != nil {
		t.Fatalf("DailyRange failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected exactly one row for the key, got %d", len(recs))
	}
	if recs[0].GDD != 20 || recs[0].TempHigh != 80 {
		t.Fatalf("expected last write to win, got %+v", recs[0])
	}
}

func TestMemoryStoreRangeOrderedAndFiltered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Insert out of order.
	for _, d := range []string{"2025-03-03", "2025-03-01", "2025-03-02", "2025-02-27"} {
		if err := s.UpsertDaily(ctx, weather.DailyRecord{LocationID: "loc", Date: day(t, d)}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	recs, err := s.DailyRange(ctx, "loc", day(t, "2025-03-01"))
	if err != nil {
		t.Fatalf("DailyRange failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 rows from 2025-03-01, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i-1].Date.Before(recs[i].Date) {
			t.Fatalf("rows not ordered ascending at %d", i)
		}
	}
}

func TestMemoryStoreEmptyLocation(t *testing.T) {
	s := NewMemoryStore()

	recs, err := s.DailyRange(context.Background(), "unknown", day(t, "2025-01-01"))
	if err != nil {
		t.Fatalf("expected no error for unknown location, got %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty slice, got %d rows", len(recs))
	}
}

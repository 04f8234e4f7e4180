package weather

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/gdd"
)

// Service orchestrates the ingestion pipeline: fetch daily weather from the
// source, derive GDD, persist per-day records, and read back cumulative
// series for charting.
type Service struct {
	store    Store
	source   Source
	baseTemp float64

	// now is injectable so tests can pin "today".
	now func() time.Time
}

// NewService creates a new Service. baseTemp is the GDD base temperature in
// the configured temperature unit.
func NewService(store Store, source Source, baseTemp float64) *Service {
	return &Service{
		store:    store,
		source:   source,
		baseTemp: baseTemp,
		now:      time.Now,
	}
}

// IngestWeather fetches daily weather for [start, end], recomputes GDD for
// every returned day, upserts each day keyed by (locationID, date), and
// returns the cumulative series from start.
//
// end may be zero, in which case it defaults to today. GDD is always
// recomputed here from the fetched extremes; any derived value carried by
// the source is ignored so the formula has exactly one computation site.
//
// There is no batch transaction: days already upserted before a failure stay
// written, and a retried ingest converges because of the upsert key.
func (s *Service) IngestWeather(ctx context.Context, locationID string, lat, lon float64, start, end time.Time) ([]CumulativePoint, error) {
	if locationID == "" {
		return nil, fmt.Errorf("location id is required")
	}

	start = common.DateOnly(start)
	if end.IsZero() {
		end = common.DateOnly(s.now())
	} else {
		end = common.DateOnly(end)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", common.DateKey(end), common.DateKey(start))
	}

	days, err := s.source.FetchDaily(ctx, lat, lon, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch daily weather: %w", err)
	}

	zap.S().Infow("ingesting daily weather",
		"location", locationID,
		"start", common.DateKey(start),
		"end", common.DateKey(end),
		"days", len(days),
	)

	now := s.now().UTC()
	for _, d := range days {
		rec := DailyRecord{
			LocationID: locationID,
			Date:       common.DateOnly(d.Date),
			TempHigh:   d.TempHigh,
			TempLow:    d.TempLow,
			Rainfall:   d.Rainfall,
			GDD:        gdd.Daily(d.TempHigh, d.TempLow, s.baseTemp),
			CreatedAt:  now,
		}
		if err := s.store.UpsertDaily(ctx, rec); err != nil {
			return nil, fmt.Errorf("upsert daily weather for %s: %w", common.DateKey(rec.Date), err)
		}
	}

	return s.CumulativeGDD(ctx, locationID, start)
}

// CumulativeGDD reads all stored daily records for the location from start
// forward, ordered by date, and produces the running-sum series. A location
// with no stored rows yields an empty slice. Pure read.
func (s *Service) CumulativeGDD(ctx context.Context, locationID string, start time.Time) ([]CumulativePoint, error) {
	recs, err := s.store.DailyRange(ctx, locationID, common.DateOnly(start))
	if err != nil {
		return nil, fmt.Errorf("read daily weather: %w", err)
	}

	points := make([]CumulativePoint, 0, len(recs))
	var sum float64
	for _, r := range recs {
		sum += r.GDD
		points = append(points, CumulativePoint{
			Date:          r.Date,
			DailyGDD:      r.GDD,
			CumulativeGDD: sum,
		})
	}
	return points, nil
}

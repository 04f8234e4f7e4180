package weather

import (
	"context"
	"time"
)

// Source abstracts the upstream weather data source (Open-Meteo in
// production, fakes in tests). Implementations return one entry per calendar
// day, sorted ascending by date, covering [start, end] as far as the
// upstream's archive and forecast windows allow.
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) ([]DailyWeather, error)
}

// Store is the contract the persistence layer must satisfy. UpsertDaily is
// keyed on (LocationID, Date): writing the same key twice overwrites the
// prior row rather than duplicating it, which is the system's only
// concurrency-safety mechanism for overlapping ingests.
type Store interface {
	UpsertDaily(ctx context.Context, rec DailyRecord) error
	// DailyRange returns all records for the location with date >= from,
	// ordered ascending by date. No rows is an empty slice, not an error.
	DailyRange(ctx context.Context, locationID string, from time.Time) ([]DailyRecord, error)
}

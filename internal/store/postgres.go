package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// PostgresStore implements weather.Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// SetupSchema creates the required tables if they don't exist. It is safe to
// run on every startup.
func SetupSchema(ctx context.Context, db *pgxpool.Pool) error {
	createSQL := `CREATE TABLE IF NOT EXISTS sites(
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS daily_weather(
	location_id TEXT NOT NULL,
	date DATE NOT NULL,
	temp_high DOUBLE PRECISION NOT NULL,
	temp_low DOUBLE PRECISION NOT NULL,
	rainfall DOUBLE PRECISION NOT NULL,
	gdd DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (location_id, date)
);
`
	if _, err := db.Exec(ctx, createSQL); err != nil {
		return pkgerrors.Wrap(err, "unable to create tables")
	}
	zap.L().Info("database schema ready")
	return nil
}

// UpsertDaily writes one day's record, overwriting any prior row for the
// same (location_id, date). created_at is preserved from the original insert
// so reruns don't rewrite history timestamps.
func (s *PostgresStore) UpsertDaily(ctx context.Context, rec weather.DailyRecord) error {
	sql := `INSERT INTO daily_weather(location_id, date, temp_high, temp_low, rainfall, gdd, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (location_id, date) DO UPDATE
SET temp_high = EXCLUDED.temp_high,
    temp_low = EXCLUDED.temp_low,
    rainfall = EXCLUDED.rainfall,
    gdd = EXCLUDED.gdd`

	_, err := s.db.Exec(ctx, sql,
		rec.LocationID, common.DateOnly(rec.Date),
		rec.TempHigh, rec.TempLow, rec.Rainfall, rec.GDD, rec.CreatedAt,
	)
	if err != nil {
		zap.S().Errorf("error upserting daily weather: %s", err.Error())
		return err
	}
	return nil
}

// DailyRange returns all records for the location with date >= from, ordered
// ascending by date.
func (s *PostgresStore) DailyRange(ctx context.Context, locationID string, from time.Time) ([]weather.DailyRecord, error) {
	sql := `SELECT location_id, date, temp_high, temp_low, rainfall, gdd, created_at
FROM daily_weather
WHERE location_id = $1 AND date >= $2
ORDER BY date ASC`

	rows, err := s.db.Query(ctx, sql, locationID, common.DateOnly(from))
	if err != nil {
		zap.S().Errorf("error querying daily weather: %s", err.Error())
		return nil, err
	}
	defer rows.Close()

	out := make([]weather.DailyRecord, 0)
	for rows.Next() {
		var rec weather.DailyRecord
		var date time.Time
		if err := rows.Scan(&rec.LocationID, &date, &rec.TempHigh, &rec.TempLow, &rec.Rainfall, &rec.GDD, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Date = common.DateOnly(date)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

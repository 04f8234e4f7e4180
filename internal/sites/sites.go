// Package sites holds the site registry: the minimal collaborator surface
// the weather core needs to turn an opaque location id into coordinates.
// Task, note and observation storage stay out of this service entirely.
package sites

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/vineyardhq/vineyard-api/internal/store"
)

// Site is one tracked vineyard site. The ID doubles as the location id under
// which daily weather is stored.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSite is the site creation input. Coordinates are pointers so "not
// supplied" is distinguishable from an explicit zero; a site at (0,0) or on
// the equator is honored as given instead of being re-geocoded.
type NewSite struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// Directory is the read/write surface the HTTP layer uses. The weather core
// never sees it; handlers resolve a site first and hand the core plain
// coordinates.
type Directory interface {
	Create(ctx context.Context, req NewSite) (Site, error)
	Get(ctx context.Context, id string) (Site, error)
	List(ctx context.Context) ([]Site, error)
}

// Registry is the Postgres-backed Directory.
type Registry struct {
	db  *pgxpool.Pool
	geo Geocoder
}

// NewRegistry creates a Registry. geo may be nil, in which case sites must
// be created with explicit coordinates.
func NewRegistry(db *pgxpool.Pool, geo Geocoder) *Registry {
	return &Registry{db: db, geo: geo}
}

// Create stores a new site. When no coordinates are supplied but an address
// is, the address is resolved through the geocoding collaborator; the rest
// of the system only ever consumes the resulting pair.
func (r *Registry) Create(ctx context.Context, req NewSite) (Site, error) {
	lat, lon, err := resolveCoordinates(r.geo, req)
	if err != nil {
		return Site{}, err
	}

	site := Site{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  lat,
		Longitude: lon,
		CreatedAt: time.Now().UTC(),
	}

	sql := `INSERT INTO sites(id, name, address, latitude, longitude, created_at)
VALUES($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.Exec(ctx, sql, site.ID, site.Name, site.Address, site.Latitude, site.Longitude, site.CreatedAt); err != nil {
		zap.S().Errorf("error inserting site: %s", err.Error())
		return Site{}, err
	}
	return site, nil
}

// resolveCoordinates picks the stored coordinate pair. Explicit coordinates
// win as-is; only a request that omits both falls through to geocoding.
func resolveCoordinates(geo Geocoder, req NewSite) (float64, float64, error) {
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return 0, 0, fmt.Errorf("latitude and longitude must be supplied together")
		}
		return *req.Latitude, *req.Longitude, nil
	}
	if req.Address == "" || geo == nil {
		return 0, 0, fmt.Errorf("either coordinates or a geocodable address is required")
	}
	lat, lon, err := geo.Locate(req.Address)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", req.Address, err)
	}
	return lat, lon, nil
}

// Get returns a single site by id.
func (r *Registry) Get(ctx context.Context, id string) (Site, error) {
	sql := `SELECT id, name, address, latitude, longitude, created_at FROM sites WHERE id = $1`

	var s Site
	err := r.db.QueryRow(ctx, sql, id).Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return Site{}, store.ErrNotFound
	}
	if err != nil {
		return Site{}, err
	}
	return s, nil
}

// List returns all sites, newest first.
func (r *Registry) List(ctx context.Context) ([]Site, error) {
	sql := `SELECT id, name, address, latitude, longitude, created_at FROM sites ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Site, 0)
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

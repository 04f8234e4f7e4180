package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vineyardhq/vineyard-api/internal/assistant"
	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/sites"
	"github.com/vineyardhq/vineyard-api/internal/store"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

// stubDirectory serves a fixed set of sites without a database.
type stubDirectory struct {
	sites map[string]sites.Site
}

func (d *stubDirectory) Create(_ context.Context, req sites.NewSite) (sites.Site, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return sites.Site{}, fmt.Errorf("coordinates are required")
	}
	s := sites.Site{
		ID:        fmt.Sprintf("site-%d", len(d.sites)+1),
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}
	d.sites[s.ID] = s
	return s, nil
}

func (d *stubDirectory) Get(_ context.Context, id string) (sites.Site, error) {
	s, ok := d.sites[id]
	if !ok {
		return sites.Site{}, store.ErrNotFound
	}
	return s, nil
}

func (d *stubDirectory) List(_ context.Context) ([]sites.Site, error) {
	out := make([]sites.Site, 0, len(d.sites))
	for _, s := range d.sites {
		out = append(out, s)
	}
	return out, nil
}

type stubSource struct {
	days []weather.DailyWeather
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchDaily(_ context.Context, _, _ float64, _, _ time.Time) ([]weather.DailyWeather, error) {
	return s.days, nil
}

func newTestApp(src weather.Source) (*fiber.App, *stubDirectory) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})

	dir := &stubDirectory{sites: map[string]sites.Site{
		"site-1": {ID: "site-1", Name: "North Block", Latitude: 38.3, Longitude: -122.3},
	}}
	svc := weather.NewService(store.NewMemoryStore(), src, 50)
	RegisterRoutes(app, svc, dir, assistant.NewCanned())
	return app, dir
}

func testDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := common.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestIngestRequiresStartDate(t *testing.T) {
	app, _ := newTestApp(&stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/site-1/weather/ingest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestIngestUnknownSite(t *testing.T) {
	app, _ := newTestApp(&stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/missing/weather/ingest?start_date=2025-03-01", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestIngestReturnsCumulativeSeries(t *testing.T) {
	src := &stubSource{days: []weather.DailyWeather{
		{Date: testDate(t, "2025-03-01"), TempHigh: 65, TempLow: 45},
		{Date: testDate(t, "2025-03-02"), TempHigh: 70, TempLow: 50},
		{Date: testDate(t, "2025-03-03"), TempHigh: 60, TempLow: 55},
	}}
	app, _ := newTestApp(src)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/site-1/weather/ingest?start_date=2025-03-01&end_date=2025-03-03", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var points []weather.CumulativePoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []float64{5, 15, 22.5}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(points))
	}
	for i, p := range points {
		if p.CumulativeGDD != want[i] {
			t.Errorf("point %d: cumulative = %v, want %v", i, p.CumulativeGDD, want[i])
		}
	}

	// Reading the series back via GET yields the same data.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites/site-1/gdd?start_date=2025-03-01", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for gdd read, got %d", resp.StatusCode)
	}

	// And the chart projection carries the cumulative values.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites/site-1/gdd/chart?start_date=2025-03-01", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var chart []weather.ChartPoint
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		t.Fatalf("decode chart failed: %v", err)
	}
	for i, p := range chart {
		if p.Value != want[i] {
			t.Errorf("chart point %d: value = %v, want %v", i, p.Value, want[i])
		}
	}
}

func TestGDDEmptyLocationReturnsEmptyList(t *testing.T) {
	app, _ := newTestApp(&stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites/site-1/gdd?start_date=2025-01-01", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for empty series, got %d", resp.StatusCode)
	}

	var points []weather.CumulativePoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected empty series, got %d points", len(points))
	}
}

func TestCreateSiteValidation(t *testing.T) {
	app, _ := newTestApp(&stubSource{})

	// Missing name.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites", strings.NewReader(`{"latitude":38.3,"longitude":-122.3}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing name, got %d", resp.StatusCode)
	}

	// Out-of-range latitude.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sites", strings.NewReader(`{"name":"x","latitude":123,"longitude":0}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad latitude, got %d", resp.StatusCode)
	}

	// Valid payload.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sites", strings.NewReader(`{"name":"South Block","latitude":38.2,"longitude":-122.4}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}
}

func TestAssistantAsk(t *testing.T) {
	app, _ := newTestApp(&stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/ask", strings.NewReader(`{"question":"when is budbreak?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Answer == "" {
		t.Fatal("expected a non-empty answer")
	}

	// Missing question is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/assistant/ask", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing question, got %d", resp.StatusCode)
	}
}

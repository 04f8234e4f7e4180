package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

// Documented fallbacks for days where the upstream omits a field. The day is
// kept with these values rather than dropped.
const (
	defaultTempHigh = 70.0
	defaultTempLow  = 50.0
	defaultRainfall = 0.0
)

// OpenMeteoSource implements weather.Source against Open-Meteo. Historical
// days come from the archive API and days from today forward come from the
// forecast API; the split happens here, at the source's invocation time.
type OpenMeteoSource struct {
	name        string
	archiveURL  string
	forecastURL string
	units       weather.Units
	httpCfg     HTTPClientConfig

	archiveCircuit  *gobreaker.CircuitBreaker
	forecastCircuit *gobreaker.CircuitBreaker

	// now is injectable so tests can pin the historical/forecast boundary.
	now func() time.Time
}

// NewOpenMeteoSource creates an Open-Meteo source. archiveURL and
// forecastURL are the host bases (e.g. "https://archive-api.open-meteo.com"
// and "https://api.open-meteo.com"). backoff controls the retry budget for
// callers that want one; interactive ingests pass MaxRetries 0 so upstream
// failures surface immediately.
func NewOpenMeteoSource(client *http.Client, archiveURL, forecastURL string, units weather.Units, backoff BackoffConfig) *OpenMeteoSource {
	newCircuit := func(name string) *gobreaker.CircuitBreaker {
		return gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}

	return &OpenMeteoSource{
		name:        "open-meteo",
		archiveURL:  archiveURL,
		forecastURL: forecastURL,
		units:       units,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		archiveCircuit:  newCircuit("open-meteo-archive"),
		forecastCircuit: newCircuit("open-meteo-forecast"),
		now:             time.Now,
	}
}

func (s *OpenMeteoSource) Name() string {
	return s.name
}

// FetchDaily returns one normalized entry per day in [start, end], merged
// from the archive and forecast endpoints and sorted ascending by date.
//
// The interval is split at today: [start, today) is served by the archive,
// [today, end] by the forecast. A range entirely on one side issues a single
// request. Duplicate dates are not deduplicated here; the storage upsert key
// handles that downstream.
func (s *OpenMeteoSource) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) ([]weather.DailyWeather, error) {
	start = common.DateOnly(start)
	end = common.DateOnly(end)
	today := common.DateOnly(s.now())

	var merged []weather.DailyWeather

	histEnd := end
	if boundary := today.AddDate(0, 0, -1); boundary.Before(histEnd) {
		histEnd = boundary
	}
	if !histEnd.Before(start) {
		days, err := s.fetchRange(ctx, s.archiveCircuit, s.archiveURL+"/v1/archive", lat, lon, start, histEnd)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		merged = append(merged, days...)
	}

	fcStart := start
	if fcStart.Before(today) {
		fcStart = today
	}
	if !end.Before(fcStart) {
		days, err := s.fetchRange(ctx, s.forecastCircuit, s.forecastURL+"/v1/forecast", lat, lon, fcStart, end)
		if err != nil {
			return nil, fmt.Errorf("forecast: %w", err)
		}
		merged = append(merged, days...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged, nil
}

func (s *OpenMeteoSource) fetchRange(ctx context.Context, cb *gobreaker.CircuitBreaker, endpoint string, lat, lon float64, start, end time.Time) ([]weather.DailyWeather, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("start_date", common.DateKey(start))
		values.Set("end_date", common.DateKey(end))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
		values.Set("temperature_unit", s.units.Temperature)
		values.Set("precipitation_unit", s.units.Precipitation)
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, cb, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily *struct {
			Time      []string   `json:"time"`
			TempMax   []*float64 `json:"temperature_2m_max"`
			TempMin   []*float64 `json:"temperature_2m_min"`
			PrecipSum []*float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode open-meteo response: %w", err)
	}

	// A success response without the daily block counts as zero data points
	// for this sub-range, not a failure.
	if payload.Daily == nil || len(payload.Daily.Time) == 0 {
		return nil, nil
	}

	out := make([]weather.DailyWeather, 0, len(payload.Daily.Time))
	for i, dateStr := range payload.Daily.Time {
		date, err := common.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", dateStr, err)
		}

		d := weather.DailyWeather{
			Date:     date,
			TempHigh: defaultTempHigh,
			TempLow:  defaultTempLow,
			Rainfall: defaultRainfall,
		}
		if i < len(payload.Daily.TempMax) && payload.Daily.TempMax[i] != nil {
			d.TempHigh = *payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempMin) && payload.Daily.TempMin[i] != nil {
			d.TempLow = *payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.PrecipSum) && payload.Daily.PrecipSum[i] != nil {
			d.Rainfall = *payload.Daily.PrecipSum[i]
		}
		out = append(out, d)
	}
	return out, nil
}

package weather

import (
	"time"
)

// Units describes the measurement units requested from the upstream provider
// and assumed by the GDD base temperature. They travel with the config rather
// than being hard-coded at request-building sites.
type Units struct {
	Temperature   string `json:"temperature"`   // "fahrenheit" or "celsius"
	Precipitation string `json:"precipitation"` // "inch" or "mm"
}

// DefaultUnits matches the reference deployment: Fahrenheit and inches.
func DefaultUnits() Units {
	return Units{Temperature: "fahrenheit", Precipitation: "inch"}
}

// DailyWeather is one normalized day of upstream weather data, before any
// GDD derivation. Missing upstream fields have already been defaulted by the
// source adapter.
type DailyWeather struct {
	Date     time.Time `json:"date"`
	TempHigh float64   `json:"tempHigh"`
	TempLow  float64   `json:"tempLow"`
	Rainfall float64   `json:"rainfall"`
}

// DailyRecord is the persisted row for one (location, date) pair. The store
// enforces uniqueness on that pair; re-ingesting a day overwrites it.
type DailyRecord struct {
	LocationID string    `json:"locationId"`
	Date       time.Time `json:"date"`
	TempHigh   float64   `json:"tempHigh"`
	TempLow    float64   `json:"tempLow"`
	Rainfall   float64   `json:"rainfall"`
	GDD        float64   `json:"gdd"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CumulativePoint is one element of the derived running-sum series. It is
// never persisted; the reader recomputes it from stored daily rows.
type CumulativePoint struct {
	Date          time.Time `json:"date"`
	DailyGDD      float64   `json:"dailyGdd"`
	CumulativeGDD float64   `json:"cumulativeGdd"`
}

// ChartPoint is the minimal shape consumed by the charting layer.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ToChartSeries reprojects a cumulative series into chart points, preserving
// order. Total; no failure modes.
func ToChartSeries(points []CumulativePoint) []ChartPoint {
	out := make([]ChartPoint, 0, len(points))
	for _, p := range points {
		out = append(out, ChartPoint{Date: p.Date, Value: p.CumulativeGDD})
	}
	return out
}

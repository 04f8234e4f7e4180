package sites

import (
	kgeocoder "github.com/kelvins/geocoder"
)

// Geocoder resolves a human address to coordinates. It is an external
// collaborator; the core only consumes the resulting pair.
type Geocoder interface {
	Locate(address string) (lat, lon float64, err error)
}

// GoogleGeocoder wraps the kelvins/geocoder Google Maps client.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the underlying client's API key and returns a
// GoogleGeocoder. Returns nil when no key is configured so callers can treat
// geocoding as unavailable.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey == "" {
		return nil
	}
	kgeocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Locate(address string) (float64, float64, error) {
	loc, err := kgeocoder.Geocoding(kgeocoder.Address{Street: address})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider matched anything.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves IDF table sites.
type Geocoder interface {
	// ForwardGeocode converts a free-form place name to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

package domain

import "context"

// GeocodeResult is the outcome of resolving a place name. Found is false
// when the service answered but knows no such place; that outcome is cached
// like any other so a name is never looked up twice in a run.
type GeocodeResult struct {
	Lat   float64
	Lon   float64
	Found bool
}

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (GeocodeResult, error)
}

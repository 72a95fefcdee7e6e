package branch

import "github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"

type Branch struct {
	ID           int64
	Name         string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters int
	IsActive     bool
}

// Coordinate returns the branch location, or nil when it has not been configured.
func (b Branch) Coordinate() *geo.Point {
	if b.Latitude == nil || b.Longitude == nil {
		return nil
	}
	return &geo.Point{Latitude: *b.Latitude, Longitude: *b.Longitude}
}

// Package geo provides the small amount of spherical geometry the
// donation service needs: great-circle distance and service-area
// containment checks.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the great-circle (haversine) distance between two
// points in kilometers.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Box is a latitude/longitude bounding box. Donations may only be
// created inside the configured box.
type Box struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Contains reports whether p lies within the box, inclusive at the edges.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North &&
		p.Lng >= b.West && p.Lng <= b.East
}

// AustinBox is the default service area: the Austin, TX metro bounds the
// service launched with.
var AustinBox = Box{
	North: 30.5149,
	South: 30.0986,
	East:  -97.5691,
	West:  -97.9383,
}

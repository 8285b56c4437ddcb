package models

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// String renders the short form used in alert confirmations,
// e.g. "Lat 19.4326, Lon -99.1332".
func (c Coordinates) String() string {
	return fmt.Sprintf("Lat %.4f, Lon %.4f", c.Lat, c.Lon)
}

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two positions.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(other.Lat - c.Lat)
	dLon := toRad(other.Lon - c.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(c.Lat))*math.Cos(toRad(other.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * chord
}

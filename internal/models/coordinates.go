package models

// Coordinates represents a geographical point defined by its longitude and latitude.
type Coordinates struct {
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
}

// GeoPoint is an ordered coordinate pair: index 0 is the latitude, index 1 the longitude.
type GeoPoint [2]float64

// NewGeoPoint builds a point from a latitude and a longitude.
func NewGeoPoint(lat, lon float64) *GeoPoint {
	return &GeoPoint{lat, lon}
}

// Latitude of the point.
func (p GeoPoint) Latitude() float64 { return p[0] }

// Longitude of the point.
func (p GeoPoint) Longitude() float64 { return p[1] }

// Coordinates converts the point to the longitude/latitude struct.
func (p GeoPoint) Coordinates() Coordinates {
	return Coordinates{Latitude: p[0], Longitude: p[1]}
}

package models

import "time"

// Route is a driving route summary between two addresses.
type Route struct {
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"duration"`
	Steps      []RouteStep   `json:"steps"`
}

// RouteStep is one turn-by-turn instruction.
type RouteStep struct {
	Instruction string  `json:"instruction"`
	DistanceKm  float64 `json:"distance_km"`
}

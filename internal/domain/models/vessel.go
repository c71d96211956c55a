package models

import "time"

// VesselPosition is a single normalized position report for one vessel.
// Several may coexist for the same vessel within a cycle until reconciliation
// picks the winner.
type VesselPosition struct {
	MMSI       string    `json:"mmsi"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKnots float64   `json:"speed_knots"`
	Heading    float64   `json:"heading"`
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider"`
	Confidence float64   `json:"confidence"` // 0..1 as declared by the provider
}

// CanonicalVesselState is the reconciled current-best position for a vessel.
// Owned by the state store; its timestamp never moves backwards.
type CanonicalVesselState struct {
	Position  VesselPosition `json:"position"`
	UpdatedAt time.Time      `json:"updated_at"` // wall-clock time of the cycle that wrote it
}

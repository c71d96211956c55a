package models

import "time"

// WeatherObservation is a normalized marine weather report for a location.
type WeatherObservation struct {
	Location       string    `json:"location"` // port id or named sea area
	WindSpeedKnots float64   `json:"wind_speed_knots"`
	WaveHeightM    float64   `json:"wave_height_m"`
	Timestamp      time.Time `json:"timestamp"`
	Provider       string    `json:"provider"`
}

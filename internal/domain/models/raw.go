package models

import (
	"encoding/json"
	"time"
)

// DataKind identifies which canonical record family a provider produces.
type DataKind string

const (
	KindVesselPositions DataKind = "vessel_positions"
	KindPortCongestion  DataKind = "port_congestion"
	KindWeather         DataKind = "weather"
)

// RawRecord is one provider payload element plus provenance. Raw records
// live only inside the cycle that fetched them; they are discarded once
// normalized.
type RawRecord struct {
	Provider  string
	Kind      DataKind
	FetchedAt time.Time
	Payload   json.RawMessage
}

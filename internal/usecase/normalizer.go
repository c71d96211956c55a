package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	"MarinePulse/pkg/util"
)

const (
	kmhPerKnot = 1.852
	msToKnots  = 1.9438452
)

// Normalized is the typed result of mapping one raw record; exactly one
// field is set, matching the record's data kind.
type Normalized struct {
	Vessel  *models.VesselPosition
	Port    *models.PortCongestionSnapshot
	Weather *models.WeatherObservation
}

// Normalizer owns every provider's wire schema and maps raw records into
// canonical ones. A record it cannot represent is dropped and counted, never
// raised as a fetch failure.
type Normalizer struct {
	metrics drepo.Metrics
}

func NewNormalizer(metrics drepo.Metrics) *Normalizer {
	return &Normalizer{metrics: metrics}
}

// Normalize maps one raw record. Errors wrap ErrUnrepresentable and have
// already been counted against the provider.
func (n *Normalizer) Normalize(rec models.RawRecord) (*Normalized, error) {
	out, err := n.normalize(rec)
	if err != nil {
		n.metrics.RecordMalformed(rec.Provider)
		return nil, fmt.Errorf("%s: %w: %v", rec.Provider, drepo.ErrUnrepresentable, err)
	}
	return out, nil
}

func (n *Normalizer) normalize(rec models.RawRecord) (*Normalized, error) {
	switch rec.Provider {
	case "aishub":
		return normalizeAISHub(rec)
	case "aisstream":
		return normalizeAISStream(rec)
	case "portwatch":
		return normalizePortWatch(rec)
	case "stormglass":
		return normalizeStormGlass(rec)
	case "meteosource":
		return normalizeMeteoSource(rec)
	default:
		return nil, fmt.Errorf("unknown provider %q", rec.Provider)
	}
}

// aishub reports speed in km/h and an accuracy figure in [0,1].
type aishubRecord struct {
	MMSI      string  `json:"mmsi"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedKmh  float64 `json:"speed_kmh"`
	Heading   float64 `json:"heading"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp string  `json:"timestamp"`
}

func normalizeAISHub(rec models.RawRecord) (*Normalized, error) {
	var r aishubRecord
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, err
	}
	ts, ok := util.ParseTime(r.Timestamp)
	if !ok {
		return nil, fmt.Errorf("bad timestamp %q", r.Timestamp)
	}
	confidence := r.Accuracy
	if confidence <= 0 || confidence > 1 {
		confidence = 0.9
	}
	pos := models.VesselPosition{
		MMSI:       r.MMSI,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		SpeedKnots: r.SpeedKmh / kmhPerKnot,
		Heading:    r.Heading,
		Timestamp:  ts,
		Provider:   rec.Provider,
		Confidence: confidence,
	}
	if err := validatePosition(&pos); err != nil {
		return nil, err
	}
	return &Normalized{Vessel: &pos}, nil
}

// aisstream wraps each position report in a message envelope; speed is
// already in knots.
type aisstreamMessage struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI    int64  `json:"MMSI"`
		TimeUTC string `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		PositionReport struct {
			Latitude         float64 `json:"Latitude"`
			Longitude        float64 `json:"Longitude"`
			Sog              float64 `json:"Sog"`
			TrueHeading      float64 `json:"TrueHeading"`
			PositionAccuracy bool    `json:"PositionAccuracy"`
		} `json:"PositionReport"`
	} `json:"Message"`
}

func normalizeAISStream(rec models.RawRecord) (*Normalized, error) {
	var m aisstreamMessage
	if err := json.Unmarshal(rec.Payload, &m); err != nil {
		return nil, err
	}
	if m.MessageType != "PositionReport" {
		return nil, fmt.Errorf("unexpected message type %q", m.MessageType)
	}
	if m.MetaData.MMSI <= 0 {
		return nil, fmt.Errorf("missing mmsi")
	}
	ts, ok := util.ParseTime(m.MetaData.TimeUTC)
	if !ok {
		return nil, fmt.Errorf("bad timestamp %q", m.MetaData.TimeUTC)
	}
	confidence := 0.7
	if m.Message.PositionReport.PositionAccuracy {
		confidence = 0.95
	}
	pos := models.VesselPosition{
		MMSI:       fmt.Sprintf("%d", m.MetaData.MMSI),
		Latitude:   m.Message.PositionReport.Latitude,
		Longitude:  m.Message.PositionReport.Longitude,
		SpeedKnots: m.Message.PositionReport.Sog,
		Heading:    m.Message.PositionReport.TrueHeading,
		Timestamp:  ts,
		Provider:   rec.Provider,
		Confidence: confidence,
	}
	if err := validatePosition(&pos); err != nil {
		return nil, err
	}
	return &Normalized{Vessel: &pos}, nil
}

type portwatchRecord struct {
	PortID         string  `json:"portid"`
	VesselsWaiting float64 `json:"n_vessels_waiting"`
	AvgWaitHours   float64 `json:"avg_waiting_hours"`
	Date           string  `json:"date"`
}

func normalizePortWatch(rec models.RawRecord) (*Normalized, error) {
	var r portwatchRecord
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, err
	}
	if r.PortID == "" {
		return nil, fmt.Errorf("missing port id")
	}
	if r.VesselsWaiting < 0 || r.AvgWaitHours < 0 {
		return nil, fmt.Errorf("negative congestion values")
	}
	ts := util.ParseTimeDefault(r.Date, rec.FetchedAt)
	return &Normalized{Port: &models.PortCongestionSnapshot{
		PortID:         r.PortID,
		VesselsWaiting: r.VesselsWaiting,
		AvgWaitHours:   r.AvgWaitHours,
		Timestamp:      ts,
		Provider:       rec.Provider,
	}}, nil
}

// stormglass reports wind in m/s and wave height in meters.
type stormglassRecord struct {
	Location    string  `json:"location"`
	WindSpeedMS float64 `json:"windSpeed"`
	WaveHeightM float64 `json:"waveHeight"`
	Time        string  `json:"time"`
}

func normalizeStormGlass(rec models.RawRecord) (*Normalized, error) {
	var r stormglassRecord
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, err
	}
	if r.Location == "" {
		return nil, fmt.Errorf("missing location")
	}
	if r.WindSpeedMS < 0 || r.WaveHeightM < 0 {
		return nil, fmt.Errorf("negative weather values")
	}
	ts, ok := util.ParseTime(r.Time)
	if !ok {
		return nil, fmt.Errorf("bad timestamp %q", r.Time)
	}
	return &Normalized{Weather: &models.WeatherObservation{
		Location:       r.Location,
		WindSpeedKnots: r.WindSpeedMS * msToKnots,
		WaveHeightM:    r.WaveHeightM,
		Timestamp:      ts,
		Provider:       rec.Provider,
	}}, nil
}

// meteosource reports wind in km/h and timestamps as unix seconds.
type meteosourceRecord struct {
	Place       string  `json:"place"`
	WindKmh     float64 `json:"wind_kmh"`
	WaveHeightM float64 `json:"wave_height_m"`
	TS          int64   `json:"ts"`
}

func normalizeMeteoSource(rec models.RawRecord) (*Normalized, error) {
	var r meteosourceRecord
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, err
	}
	if r.Place == "" {
		return nil, fmt.Errorf("missing place")
	}
	if r.WindKmh < 0 || r.WaveHeightM < 0 {
		return nil, fmt.Errorf("negative weather values")
	}
	if r.TS <= 0 {
		return nil, fmt.Errorf("bad timestamp %d", r.TS)
	}
	return &Normalized{Weather: &models.WeatherObservation{
		Location:       r.Place,
		WindSpeedKnots: r.WindKmh / kmhPerKnot,
		WaveHeightM:    r.WaveHeightM,
		Timestamp:      time.Unix(r.TS, 0).UTC(),
		Provider:       rec.Provider,
	}}, nil
}

func validatePosition(p *models.VesselPosition) error {
	if p.MMSI == "" {
		return fmt.Errorf("missing mmsi")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", p.Longitude)
	}
	if p.SpeedKnots < 0 {
		return fmt.Errorf("negative speed")
	}
	return nil
}

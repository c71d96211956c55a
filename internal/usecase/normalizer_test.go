package usecase

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
)

func rawRecord(provider string, kind models.DataKind, payload string) models.RawRecord {
	return models.RawRecord{
		Provider:  provider,
		Kind:      kind,
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:   json.RawMessage(payload),
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestNormalizeAISHubConvertsSpeed(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("aishub", models.KindVesselPositions,
		`{"mmsi":"366999712","latitude":1.25,"longitude":103.8,"speed_kmh":18.52,"heading":90,"accuracy":0.8,"timestamp":"2026-03-01T11:59:30Z"}`)

	out, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Vessel == nil {
		t.Fatalf("expected vessel position")
	}
	if !almostEqual(out.Vessel.SpeedKnots, 10) {
		t.Fatalf("expected 10 knots from 18.52 km/h, got %v", out.Vessel.SpeedKnots)
	}
	if out.Vessel.Confidence != 0.8 {
		t.Fatalf("unexpected confidence %v", out.Vessel.Confidence)
	}
	if out.Vessel.Provider != "aishub" {
		t.Fatalf("unexpected provider %s", out.Vessel.Provider)
	}
}

func TestNormalizeAISStreamEnvelope(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("aisstream", models.KindVesselPositions,
		`{"MessageType":"PositionReport","MetaData":{"MMSI":244660920,"time_utc":"2026-03-01T11:58:00Z"},"Message":{"PositionReport":{"Latitude":51.9,"Longitude":4.4,"Sog":12.3,"TrueHeading":271,"PositionAccuracy":true}}}`)

	out, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := out.Vessel
	if v == nil {
		t.Fatalf("expected vessel position")
	}
	if v.MMSI != "244660920" {
		t.Fatalf("unexpected mmsi %s", v.MMSI)
	}
	if v.SpeedKnots != 12.3 {
		t.Fatalf("sog is already knots, got %v", v.SpeedKnots)
	}
	if v.Confidence != 0.95 {
		t.Fatalf("expected high confidence for accurate fix, got %v", v.Confidence)
	}
}

func TestNormalizeDropsOutOfRangeLatitude(t *testing.T) {
	m := newFakeMetrics()
	n := NewNormalizer(m)
	rec := rawRecord("aishub", models.KindVesselPositions,
		`{"mmsi":"366999712","latitude":999,"longitude":103.8,"speed_kmh":5,"heading":90,"accuracy":0.8,"timestamp":"2026-03-01T11:59:30Z"}`)

	_, err := n.Normalize(rec)
	if !errors.Is(err, drepo.ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
	if m.malformed["aishub"] != 1 {
		t.Fatalf("expected malformed record counted")
	}
}

func TestNormalizeDropsGarbagePayload(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("portwatch", models.KindPortCongestion, `{"portid":`)

	if _, err := n.Normalize(rec); !errors.Is(err, drepo.ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
}

func TestNormalizePortWatchDefaultsTimestamp(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("portwatch", models.KindPortCongestion,
		`{"portid":"SGSIN","n_vessels_waiting":42,"avg_waiting_hours":3.5}`)

	out, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := out.Port
	if p == nil {
		t.Fatalf("expected port snapshot")
	}
	if !p.Timestamp.Equal(rec.FetchedAt) {
		t.Fatalf("expected fetch time fallback, got %v", p.Timestamp)
	}
	if p.VesselsWaiting != 42 || p.AvgWaitHours != 3.5 {
		t.Fatalf("unexpected values %v/%v", p.VesselsWaiting, p.AvgWaitHours)
	}
}

func TestNormalizeStormGlassConvertsWind(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("stormglass", models.KindWeather,
		`{"location":"SGSIN","windSpeed":10,"waveHeight":1.4,"time":"2026-03-01T11:00:00Z"}`)

	out, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := out.Weather
	if w == nil {
		t.Fatalf("expected weather observation")
	}
	if !almostEqual(w.WindSpeedKnots, 19.438452) {
		t.Fatalf("expected 19.438452 knots from 10 m/s, got %v", w.WindSpeedKnots)
	}
}

func TestNormalizeMeteoSourceUnixAndKmh(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("meteosource", models.KindWeather,
		`{"place":"NLRTM","wind_kmh":37.04,"wave_height_m":2.1,"ts":1772366400}`)

	out, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := out.Weather
	if w == nil {
		t.Fatalf("expected weather observation")
	}
	if !almostEqual(w.WindSpeedKnots, 20) {
		t.Fatalf("expected 20 knots from 37.04 km/h, got %v", w.WindSpeedKnots)
	}
	if w.Timestamp.Unix() != 1772366400 {
		t.Fatalf("unexpected timestamp %v", w.Timestamp)
	}
}

func TestNormalizeUnknownProvider(t *testing.T) {
	n := NewNormalizer(newFakeMetrics())
	rec := rawRecord("mystery", models.KindVesselPositions, `{}`)

	if _, err := n.Normalize(rec); !errors.Is(err, drepo.ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
}

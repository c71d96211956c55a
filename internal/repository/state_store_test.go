package repository

import (
	"errors"
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
)

func vesselState(mmsi string, ts time.Time, provider string) models.CanonicalVesselState {
	return models.CanonicalVesselState{
		Position: models.VesselPosition{
			MMSI: mmsi, Latitude: 1.2, Longitude: 103.8,
			SpeedKnots: 9, Timestamp: ts, Provider: provider, Confidence: 0.9,
		},
		UpdatedAt: ts,
	}
}

func portState(port string, waiting float64) models.CanonicalPortState {
	return models.CanonicalPortState{
		Snapshot: models.PortCongestionSnapshot{
			PortID: port, VesselsWaiting: waiting, Timestamp: time.Now().UTC(), Provider: "portwatch",
		},
		UpdatedAt: time.Now().UTC(),
	}
}

func TestApplyCycleUpserts(t *testing.T) {
	s := NewMemoryStateStore()
	now := time.Now().UTC()

	s.ApplyCycle(
		[]models.CanonicalVesselState{vesselState("111", now, "aishub")},
		[]models.CanonicalPortState{portState("SGSIN", 40)},
	)

	v, err := s.Vessel("111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Position.Provider != "aishub" {
		t.Fatalf("unexpected provider %s", v.Position.Provider)
	}
	p, err := s.Port("SGSIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Snapshot.VesselsWaiting != 40 {
		t.Fatalf("unexpected waiting %v", p.Snapshot.VesselsWaiting)
	}
}

func TestApplyCycleRejectsOlderVesselReport(t *testing.T) {
	s := NewMemoryStateStore()
	now := time.Now().UTC()

	s.ApplyCycle([]models.CanonicalVesselState{vesselState("111", now, "aishub")}, nil)
	s.ApplyCycle([]models.CanonicalVesselState{vesselState("111", now.Add(-time.Minute), "aisstream")}, nil)

	v, err := s.Vessel("111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Position.Provider != "aishub" {
		t.Fatalf("older report must not replace newer state, got %s", v.Position.Provider)
	}
	if !v.Position.Timestamp.Equal(now) {
		t.Fatalf("timestamp moved backwards to %v", v.Position.Timestamp)
	}
}

func TestApplyCycleAcceptsEqualTimestamp(t *testing.T) {
	s := NewMemoryStateStore()
	now := time.Now().UTC()

	s.ApplyCycle([]models.CanonicalVesselState{vesselState("111", now, "aishub")}, nil)
	s.ApplyCycle([]models.CanonicalVesselState{vesselState("111", now, "aisstream")}, nil)

	v, _ := s.Vessel("111")
	if v.Position.Provider != "aisstream" {
		t.Fatalf("equal timestamp should re-apply, got %s", v.Position.Provider)
	}
}

func TestLookupMissing(t *testing.T) {
	s := NewMemoryStateStore()
	if _, err := s.Vessel("nope"); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Port("nope"); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListingsAreSorted(t *testing.T) {
	s := NewMemoryStateStore()
	now := time.Now().UTC()

	s.ApplyCycle(
		[]models.CanonicalVesselState{
			vesselState("333", now, "aishub"),
			vesselState("111", now, "aishub"),
		},
		[]models.CanonicalPortState{portState("USLAX", 10), portState("CNSHA", 20)},
	)

	vs := s.Vessels()
	if len(vs) != 2 || vs[0].Position.MMSI != "111" {
		t.Fatalf("expected sorted vessels, got %v", vs)
	}
	ps := s.Ports()
	if len(ps) != 2 || ps[0].Snapshot.PortID != "CNSHA" {
		t.Fatalf("expected sorted ports, got %v", ps)
	}
}

func TestSetWeatherReplacesPerLocation(t *testing.T) {
	s := NewMemoryStateStore()
	now := time.Now().UTC()

	s.SetWeather([]models.WeatherObservation{
		{Location: "SGSIN", WindSpeedKnots: 12, Timestamp: now, Provider: "stormglass"},
	})
	s.SetWeather([]models.WeatherObservation{
		{Location: "SGSIN", WindSpeedKnots: 20, Timestamp: now.Add(time.Hour), Provider: "meteosource"},
	})

	out := s.Weather()
	if len(out) != 1 {
		t.Fatalf("expected one observation, got %d", len(out))
	}
	if out[0].WindSpeedKnots != 20 {
		t.Fatalf("expected replacement, got %v", out[0].WindSpeedKnots)
	}
}

package usecase

import (
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
)

func position(mmsi, provider string, ts time.Time, confidence float64) models.VesselPosition {
	return models.VesselPosition{
		MMSI:       mmsi,
		Latitude:   1.2,
		Longitude:  103.8,
		SpeedKnots: 10,
		Timestamp:  ts,
		Provider:   provider,
		Confidence: confidence,
	}
}

func TestReconcileVesselsNewestWins(t *testing.T) {
	r := NewReconciler([]string{"aisstream", "aishub"})
	base := time.Now().UTC()

	out := r.ReconcileVessels([]models.VesselPosition{
		position("111", "aishub", base.Add(time.Minute), 0.5),
		position("111", "aisstream", base, 0.95),
	})
	if len(out) != 1 {
		t.Fatalf("expected one position, got %d", len(out))
	}
	if out[0].Provider != "aishub" {
		t.Fatalf("newer report should win regardless of confidence, got %s", out[0].Provider)
	}
}

func TestReconcileVesselsConfidenceBreaksTimestampTie(t *testing.T) {
	r := NewReconciler([]string{"aishub", "aisstream"})
	base := time.Now().UTC()

	out := r.ReconcileVessels([]models.VesselPosition{
		position("111", "aishub", base, 0.8),
		position("111", "aisstream", base, 0.95),
	})
	if out[0].Provider != "aisstream" {
		t.Fatalf("higher confidence should win the tie, got %s", out[0].Provider)
	}
}

func TestReconcileVesselsPriorityBreaksFullTie(t *testing.T) {
	r := NewReconciler([]string{"aisstream", "aishub"})
	base := time.Now().UTC()

	out := r.ReconcileVessels([]models.VesselPosition{
		position("111", "aishub", base, 0.9),
		position("111", "aisstream", base, 0.9),
	})
	if out[0].Provider != "aisstream" {
		t.Fatalf("configured priority should win the full tie, got %s", out[0].Provider)
	}

	// An unlisted provider loses to any listed one.
	out = r.ReconcileVessels([]models.VesselPosition{
		position("222", "unknown", base, 0.9),
		position("222", "aishub", base, 0.9),
	})
	if out[0].Provider != "aishub" {
		t.Fatalf("unlisted provider should lose ties, got %s", out[0].Provider)
	}
}

func TestReconcileVesselsKeepsDistinctMMSIs(t *testing.T) {
	r := NewReconciler(nil)
	base := time.Now().UTC()

	out := r.ReconcileVessels([]models.VesselPosition{
		position("333", "aishub", base, 0.9),
		position("111", "aishub", base, 0.9),
		position("222", "aishub", base, 0.9),
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 vessels, got %d", len(out))
	}
	// Output is sorted for deterministic cycles.
	if out[0].MMSI != "111" || out[2].MMSI != "333" {
		t.Fatalf("expected sorted output, got %v %v %v", out[0].MMSI, out[1].MMSI, out[2].MMSI)
	}
}

func TestReconcilePortsSingleReportPassesThrough(t *testing.T) {
	r := NewReconciler(nil)
	snap := models.PortCongestionSnapshot{
		PortID: "SGSIN", VesselsWaiting: 40, AvgWaitHours: 4,
		Timestamp: time.Now().UTC(), Provider: "portwatch",
	}
	out := r.ReconcilePorts([]models.PortCongestionSnapshot{snap})
	if len(out) != 1 || out[0] != snap {
		t.Fatalf("single report should pass through unchanged")
	}
}

func TestReconcilePortsAveragesAcrossProviders(t *testing.T) {
	r := NewReconciler(nil)
	base := time.Now().UTC()

	out := r.ReconcilePorts([]models.PortCongestionSnapshot{
		{PortID: "SGSIN", VesselsWaiting: 40, AvgWaitHours: 4, Timestamp: base, Provider: "portwatch"},
		{PortID: "SGSIN", VesselsWaiting: 60, AvgWaitHours: 6, Timestamp: base.Add(time.Minute), Provider: "aishub"},
	})
	if len(out) != 1 {
		t.Fatalf("expected one merged snapshot, got %d", len(out))
	}
	merged := out[0]
	if merged.VesselsWaiting != 50 || merged.AvgWaitHours != 5 {
		t.Fatalf("expected averages 50/5, got %v/%v", merged.VesselsWaiting, merged.AvgWaitHours)
	}
	if !merged.Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected freshest timestamp kept")
	}
	if merged.Provider != "aishub+portwatch" {
		t.Fatalf("unexpected provider label %s", merged.Provider)
	}
}

func TestReconcileWeatherFreshestPerLocation(t *testing.T) {
	r := NewReconciler([]string{"stormglass", "meteosource"})
	base := time.Now().UTC()

	out := r.ReconcileWeather([]models.WeatherObservation{
		{Location: "SGSIN", WindSpeedKnots: 15, Timestamp: base, Provider: "meteosource"},
		{Location: "SGSIN", WindSpeedKnots: 18, Timestamp: base.Add(-time.Hour), Provider: "stormglass"},
	})
	if len(out) != 1 {
		t.Fatalf("expected one observation, got %d", len(out))
	}
	if out[0].Provider != "meteosource" {
		t.Fatalf("freshest observation should win, got %s", out[0].Provider)
	}

	// Equal timestamps fall back to priority.
	out = r.ReconcileWeather([]models.WeatherObservation{
		{Location: "NLRTM", WindSpeedKnots: 15, Timestamp: base, Provider: "meteosource"},
		{Location: "NLRTM", WindSpeedKnots: 18, Timestamp: base, Provider: "stormglass"},
	})
	if out[0].Provider != "stormglass" {
		t.Fatalf("priority should break the tie, got %s", out[0].Provider)
	}
}

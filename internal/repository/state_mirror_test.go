package repository

import (
	"context"
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
	applogger "MarinePulse/pkg/logger"
)

type captureMirror struct {
	vessels []models.CanonicalVesselState
	ports   []models.CanonicalPortState
	calls   int
}

func (m *captureMirror) Mirror(_ context.Context, vessels []models.CanonicalVesselState, ports []models.CanonicalPortState) error {
	m.vessels = vessels
	m.ports = ports
	m.calls++
	return nil
}

func mirrorLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestMirroredStoreMirrorsAcceptedState(t *testing.T) {
	sink := &captureMirror{}
	s := NewMirroredStateStore(NewMemoryStateStore(), sink, mirrorLogger(t))
	now := time.Now().UTC()

	s.ApplyCycle([]models.CanonicalVesselState{vesselState("111", now, "aishub")}, nil)
	s.ApplyCycle(
		[]models.CanonicalVesselState{vesselState("111", now.Add(-time.Minute), "aisstream")},
		[]models.CanonicalPortState{portState("SGSIN", 40)},
	)

	if sink.calls != 2 {
		t.Fatalf("expected 2 mirror calls, got %d", sink.calls)
	}
	if len(sink.vessels) != 1 {
		t.Fatalf("expected 1 mirrored vessel, got %d", len(sink.vessels))
	}
	got := sink.vessels[0]
	if got.Position.Provider != "aishub" || !got.Position.Timestamp.Equal(now) {
		t.Fatalf("mirror must carry the stored state, not the stale report: %+v", got.Position)
	}
	if len(sink.ports) != 1 || sink.ports[0].Snapshot.PortID != "SGSIN" {
		t.Fatalf("unexpected mirrored ports %v", sink.ports)
	}
}

func TestMirroredStoreDedupesBatchVessels(t *testing.T) {
	sink := &captureMirror{}
	s := NewMirroredStateStore(NewMemoryStateStore(), sink, mirrorLogger(t))
	now := time.Now().UTC()

	s.ApplyCycle([]models.CanonicalVesselState{
		vesselState("111", now, "aishub"),
		vesselState("111", now, "aisstream"),
	}, nil)

	if len(sink.vessels) != 1 {
		t.Fatalf("expected 1 mirrored vessel, got %d", len(sink.vessels))
	}
	if sink.vessels[0].Position.Provider != "aisstream" {
		t.Fatalf("expected last equal-timestamp write, got %s", sink.vessels[0].Position.Provider)
	}
}

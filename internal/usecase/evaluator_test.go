package usecase

import (
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
)

func snapshot(port string, waiting float64) models.PortCongestionSnapshot {
	return models.PortCongestionSnapshot{
		PortID:         port,
		VesselsWaiting: waiting,
		AvgWaitHours:   waiting / 10,
		Timestamp:      time.Now().UTC(),
		Provider:       "portwatch",
	}
}

func TestEvaluateFiresOnUpwardCross(t *testing.T) {
	ev := NewEvaluator(75, models.MetricVesselsWaiting)
	at := time.Now().UTC()

	state, events := ev.Evaluate(nil, snapshot("SGSIN", 70), at)
	if len(events) != 0 {
		t.Fatalf("expected no event below threshold, got %d", len(events))
	}
	if state.Alerting {
		t.Fatalf("expected not alerting")
	}

	state, events = ev.Evaluate(&state, snapshot("SGSIN", 80), at)
	if len(events) != 1 {
		t.Fatalf("expected one event on cross, got %d", len(events))
	}
	if events[0].Kind != models.EventCongestionExceeded {
		t.Fatalf("unexpected kind %s", events[0].Kind)
	}
	if events[0].Observed != 80 || events[0].Threshold != 75 {
		t.Fatalf("unexpected event values %v/%v", events[0].Observed, events[0].Threshold)
	}
	if !state.Alerting {
		t.Fatalf("expected alerting after cross")
	}
	if state.AboveSince.IsZero() {
		t.Fatalf("expected above_since set")
	}
}

func TestEvaluateNoRepeatWhileAbove(t *testing.T) {
	ev := NewEvaluator(75, models.MetricVesselsWaiting)
	at := time.Now().UTC()

	state, events := ev.Evaluate(nil, snapshot("SGSIN", 80), at)
	if len(events) != 1 {
		t.Fatalf("expected event on first observation at threshold, got %d", len(events))
	}

	for i := 0; i < 3; i++ {
		var evs []models.NotificationEvent
		state, evs = ev.Evaluate(&state, snapshot("SGSIN", 80), at.Add(time.Minute))
		if len(evs) != 0 {
			t.Fatalf("cycle %d: expected no repeat event, got %d", i, len(evs))
		}
		if !state.Alerting {
			t.Fatalf("cycle %d: expected to stay alerting", i)
		}
	}
}

func TestEvaluateRecovery(t *testing.T) {
	ev := NewEvaluator(75, models.MetricVesselsWaiting)
	at := time.Now().UTC()

	state, _ := ev.Evaluate(nil, snapshot("NLRTM", 90), at)
	state, events := ev.Evaluate(&state, snapshot("NLRTM", 70), at.Add(time.Minute))
	if len(events) != 1 {
		t.Fatalf("expected one recovery event, got %d", len(events))
	}
	if events[0].Kind != models.EventCongestionRecovered {
		t.Fatalf("unexpected kind %s", events[0].Kind)
	}
	if state.Alerting {
		t.Fatalf("expected not alerting after recovery")
	}
	if !state.AboveSince.IsZero() {
		t.Fatalf("expected above_since cleared")
	}

	// Staying below produces nothing further.
	_, events = ev.Evaluate(&state, snapshot("NLRTM", 60), at.Add(2*time.Minute))
	if len(events) != 0 {
		t.Fatalf("expected no event while below, got %d", len(events))
	}
}

func TestEvaluateExactThresholdFires(t *testing.T) {
	ev := NewEvaluator(75, models.MetricVesselsWaiting)
	_, events := ev.Evaluate(nil, snapshot("CNSHA", 75), time.Now().UTC())
	if len(events) != 1 {
		t.Fatalf("expected event at exact threshold, got %d", len(events))
	}
}

func TestEvaluateAvgWaitMetric(t *testing.T) {
	ev := NewEvaluator(6, models.MetricAvgWaitHours)

	snap := snapshot("USLAX", 80) // avg wait 8h
	_, events := ev.Evaluate(nil, snap, time.Now().UTC())
	if len(events) != 1 {
		t.Fatalf("expected event on avg wait metric, got %d", len(events))
	}
	if events[0].Metric != models.MetricAvgWaitHours {
		t.Fatalf("unexpected metric %s", events[0].Metric)
	}
	if events[0].Observed != 8 {
		t.Fatalf("unexpected observed %v", events[0].Observed)
	}
}

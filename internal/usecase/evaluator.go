package usecase

import (
	"time"

	"MarinePulse/internal/domain/models"
)

// Evaluator derives congestion alerts from reconciled port snapshots. It is
// edge-triggered: an event fires only when the configured metric crosses the
// threshold, not on every cycle spent above it. The previous cycle's state
// travels in CanonicalPortState, so the evaluator itself is stateless.
type Evaluator struct {
	threshold float64
	metric    models.CongestionMetric
}

func NewEvaluator(threshold float64, metric models.CongestionMetric) *Evaluator {
	return &Evaluator{threshold: threshold, metric: metric}
}

// Metric returns the configured congestion metric.
func (e *Evaluator) Metric() models.CongestionMetric { return e.metric }

// Evaluate folds one reconciled snapshot into the port's canonical state and
// returns any event the transition produced. prev is nil for a port seen for
// the first time; an unknown prior counts as below threshold.
func (e *Evaluator) Evaluate(prev *models.CanonicalPortState, snap models.PortCongestionSnapshot, at time.Time) (models.CanonicalPortState, []models.NotificationEvent) {
	value := snap.Metric(e.metric)

	state := models.CanonicalPortState{
		Snapshot:  snap,
		UpdatedAt: at,
	}

	wasAlerting := false
	if prev != nil {
		wasAlerting = prev.Alerting
		state.PrevMetric = prev.Snapshot.Metric(e.metric)
		state.AboveSince = prev.AboveSince
	}

	var events []models.NotificationEvent
	switch {
	case value >= e.threshold && !wasAlerting:
		state.Alerting = true
		state.AboveSince = at
		events = append(events, models.NewNotificationEvent(
			models.EventCongestionExceeded, snap.PortID, e.metric, value, e.threshold))
	case value < e.threshold && wasAlerting:
		state.Alerting = false
		state.AboveSince = time.Time{}
		events = append(events, models.NewNotificationEvent(
			models.EventCongestionRecovered, snap.PortID, e.metric, value, e.threshold))
	default:
		state.Alerting = wasAlerting
	}

	return state, events
}

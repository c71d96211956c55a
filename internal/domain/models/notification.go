package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a notification event.
type EventKind string

const (
	EventCongestionExceeded  EventKind = "congestion_threshold_exceeded"
	EventCongestionRecovered EventKind = "congestion_recovered"
)

// NotificationEvent is an immutable alert produced by the evaluator and
// consumed exactly once by the dispatcher.
type NotificationEvent struct {
	ID        uuid.UUID        `json:"id"`
	Kind      EventKind        `json:"kind"`
	SubjectID string           `json:"subject_id"` // port or vessel identifier
	Metric    CongestionMetric `json:"metric"`
	Observed  float64          `json:"observed"`
	Threshold float64          `json:"threshold"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewNotificationEvent stamps a fresh event with a unique id.
func NewNotificationEvent(kind EventKind, subjectID string, metric CongestionMetric, observed, threshold float64) NotificationEvent {
	return NotificationEvent{
		ID:        uuid.New(),
		Kind:      kind,
		SubjectID: subjectID,
		Metric:    metric,
		Observed:  observed,
		Threshold: threshold,
		Timestamp: time.Now().UTC(),
	}
}

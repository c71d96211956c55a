package models

import "time"

// CongestionMetric selects which value the congestion threshold applies to.
type CongestionMetric string

const (
	MetricVesselsWaiting CongestionMetric = "vessels_waiting"
	MetricAvgWaitHours   CongestionMetric = "avg_wait_hours"
)

// PortCongestionSnapshot is one provider's view of a port in one cycle.
type PortCongestionSnapshot struct {
	PortID         string    `json:"port_id"` // UN/LOCODE
	VesselsWaiting float64   `json:"vessels_waiting"`
	AvgWaitHours   float64   `json:"avg_wait_hours"`
	Timestamp      time.Time `json:"timestamp"`
	Provider       string    `json:"provider"`
}

// Metric returns the snapshot value for the configured metric.
func (s *PortCongestionSnapshot) Metric(m CongestionMetric) float64 {
	if m == MetricAvgWaitHours {
		return s.AvgWaitHours
	}
	return s.VesselsWaiting
}

// CanonicalPortState is the reconciled port view plus the previous cycle's
// metric value, kept explicitly so threshold crossings can be detected.
type CanonicalPortState struct {
	Snapshot    PortCongestionSnapshot `json:"snapshot"`
	PrevMetric  float64                `json:"prev_metric"`
	AboveSince  time.Time              `json:"above_since,omitempty"`
	Alerting    bool                   `json:"alerting"` // currently at or above threshold
	UpdatedAt   time.Time              `json:"updated_at"`
}

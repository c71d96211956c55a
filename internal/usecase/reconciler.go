package usecase

import (
	"sort"
	"strings"

	"MarinePulse/internal/domain/models"
)

// Reconciler merges one cycle's normalized records into a single
// authoritative view per vessel and port. The winner rules are deterministic
// on purpose: providers disagree, and a last-writer policy would flip
// between retries.
type Reconciler struct {
	priority map[string]int
}

// NewReconciler builds a reconciler with the configured provider priority
// order; earlier entries win ties.
func NewReconciler(order []string) *Reconciler {
	prio := make(map[string]int, len(order))
	for i, name := range order {
		prio[name] = i
	}
	return &Reconciler{priority: prio}
}

// ReconcileVessels selects one position per MMSI: highest timestamp, then
// highest declared confidence, then configured provider priority.
func (r *Reconciler) ReconcileVessels(positions []models.VesselPosition) []models.VesselPosition {
	best := make(map[string]models.VesselPosition, len(positions))
	for _, p := range positions {
		cur, ok := best[p.MMSI]
		if !ok || r.wins(p, cur) {
			best[p.MMSI] = p
		}
	}

	out := make([]models.VesselPosition, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}

func (r *Reconciler) wins(a, b models.VesselPosition) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return r.rank(a.Provider) < r.rank(b.Provider)
}

func (r *Reconciler) rank(provider string) int {
	if i, ok := r.priority[provider]; ok {
		return i
	}
	return len(r.priority) // unlisted providers lose every tie
}

// ReconcilePorts averages congestion metrics across the providers that
// reported a port this cycle; a lone report passes through untouched.
func (r *Reconciler) ReconcilePorts(snaps []models.PortCongestionSnapshot) []models.PortCongestionSnapshot {
	byPort := make(map[string][]models.PortCongestionSnapshot)
	for _, s := range snaps {
		byPort[s.PortID] = append(byPort[s.PortID], s)
	}

	out := make([]models.PortCongestionSnapshot, 0, len(byPort))
	for portID, group := range byPort {
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		merged := models.PortCongestionSnapshot{PortID: portID}
		providers := make([]string, 0, len(group))
		for _, s := range group {
			merged.VesselsWaiting += s.VesselsWaiting
			merged.AvgWaitHours += s.AvgWaitHours
			if s.Timestamp.After(merged.Timestamp) {
				merged.Timestamp = s.Timestamp
			}
			providers = append(providers, s.Provider)
		}
		merged.VesselsWaiting /= float64(len(group))
		merged.AvgWaitHours /= float64(len(group))
		sort.Strings(providers)
		merged.Provider = strings.Join(providers, "+")
		out = append(out, merged)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PortID < out[j].PortID })
	return out
}

// ReconcileWeather keeps the freshest observation per location, breaking
// timestamp ties by provider priority.
func (r *Reconciler) ReconcileWeather(obs []models.WeatherObservation) []models.WeatherObservation {
	best := make(map[string]models.WeatherObservation, len(obs))
	for _, o := range obs {
		cur, ok := best[o.Location]
		if !ok ||
			o.Timestamp.After(cur.Timestamp) ||
			(o.Timestamp.Equal(cur.Timestamp) && r.rank(o.Provider) < r.rank(cur.Provider)) {
			best[o.Location] = o
		}
	}

	out := make([]models.WeatherObservation, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

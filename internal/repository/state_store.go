package repository

import (
	"fmt"
	"sort"
	"sync"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
)

// MemoryStateStore is the single point of truth for canonical vessel and
// port state. One cycle's writes are applied under a single lock take, so
// external readers either see the state before the cycle or after it, never
// a mix.
type MemoryStateStore struct {
	mu      sync.RWMutex
	vessels map[string]models.CanonicalVesselState
	ports   map[string]models.CanonicalPortState
	weather map[string]models.WeatherObservation
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		vessels: make(map[string]models.CanonicalVesselState),
		ports:   make(map[string]models.CanonicalPortState),
		weather: make(map[string]models.WeatherObservation),
	}
}

// ApplyCycle upserts a reconciled batch atomically. A vessel report older
// than the stored one is discarded; canonical timestamps never move
// backwards.
func (s *MemoryStateStore) ApplyCycle(vessels []models.CanonicalVesselState, ports []models.CanonicalPortState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vessels {
		cur, ok := s.vessels[v.Position.MMSI]
		if ok && v.Position.Timestamp.Before(cur.Position.Timestamp) {
			continue
		}
		s.vessels[v.Position.MMSI] = v
	}
	for _, p := range ports {
		s.ports[p.Snapshot.PortID] = p
	}
}

// SetWeather replaces the stored observation per location.
func (s *MemoryStateStore) SetWeather(obs []models.WeatherObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		s.weather[o.Location] = o
	}
}

func (s *MemoryStateStore) Vessel(mmsi string) (*models.CanonicalVesselState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vessels[mmsi]
	if !ok {
		return nil, fmt.Errorf("vessel %q: %w", mmsi, drepo.ErrNotFound)
	}
	return &v, nil
}

func (s *MemoryStateStore) Port(portID string) (*models.CanonicalPortState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ports[portID]
	if !ok {
		return nil, fmt.Errorf("port %q: %w", portID, drepo.ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStateStore) Vessels() []models.CanonicalVesselState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CanonicalVesselState, 0, len(s.vessels))
	for _, v := range s.vessels {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.MMSI < out[j].Position.MMSI })
	return out
}

func (s *MemoryStateStore) Ports() []models.CanonicalPortState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CanonicalPortState, 0, len(s.ports))
	for _, p := range s.ports {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Snapshot.PortID < out[j].Snapshot.PortID })
	return out
}

func (s *MemoryStateStore) Weather() []models.WeatherObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WeatherObservation, 0, len(s.weather))
	for _, o := range s.weather {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

var _ drepo.StateStore = (*MemoryStateStore)(nil)

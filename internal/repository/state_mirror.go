package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	applogger "MarinePulse/pkg/logger"
)

// RedisStateMirror copies canonical state into Redis hashes after each
// cycle so out-of-process consumers (the serving API) can read it without
// reaching into the tracker.
type RedisStateMirror struct {
	client *redis.Client
	prefix string
}

func NewRedisStateMirror(client *redis.Client, prefix string) *RedisStateMirror {
	if prefix == "" {
		prefix = "marinepulse:state"
	}
	return &RedisStateMirror{client: client, prefix: prefix}
}

// Mirror writes each vessel and port state as a JSON hash field. Best
// effort: a mirror failure never fails the cycle.
func (m *RedisStateMirror) Mirror(ctx context.Context, vessels []models.CanonicalVesselState, ports []models.CanonicalPortState) error {
	pipe := m.client.Pipeline()
	for _, v := range vessels {
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		pipe.HSet(ctx, m.prefix+":vessels", v.Position.MMSI, b)
	}
	for _, p := range ports {
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.HSet(ctx, m.prefix+":ports", p.Snapshot.PortID, b)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("state mirror: %w", err)
	}
	return nil
}

// StateMirror receives canonical state after every applied cycle.
type StateMirror interface {
	Mirror(ctx context.Context, vessels []models.CanonicalVesselState, ports []models.CanonicalPortState) error
}

// MirroredStateStore decorates a StateStore so every applied cycle is also
// mirrored to Redis.
type MirroredStateStore struct {
	drepo.StateStore
	mirror StateMirror
	logger *applogger.Logger
}

func NewMirroredStateStore(inner drepo.StateStore, mirror StateMirror, lgr *applogger.Logger) *MirroredStateStore {
	return &MirroredStateStore{StateStore: inner, mirror: mirror, logger: lgr}
}

// ApplyCycle applies the batch to the inner store, then mirrors what the
// store actually accepted. The store discards stale vessel reports, so
// mirroring the raw batch could rewind a vessel in Redis.
func (s *MirroredStateStore) ApplyCycle(vessels []models.CanonicalVesselState, ports []models.CanonicalPortState) {
	s.StateStore.ApplyCycle(vessels, ports)

	accepted := make([]models.CanonicalVesselState, 0, len(vessels))
	seen := make(map[string]bool, len(vessels))
	for _, v := range vessels {
		if seen[v.Position.MMSI] {
			continue
		}
		seen[v.Position.MMSI] = true
		cur, err := s.StateStore.Vessel(v.Position.MMSI)
		if err != nil {
			continue
		}
		accepted = append(accepted, *cur)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mirror.Mirror(ctx, accepted, ports); err != nil {
		s.logger.Warn("state mirror failed", applogger.Error(err))
	}
}

var _ StateMirror = (*RedisStateMirror)(nil)

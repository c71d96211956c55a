package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
)

// ClickHouseArchive appends each cycle's reconciled positions to a
// time-series table, giving the excluded query layer position history
// without touching the hot in-memory store.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

func NewClickHouseArchive(db *sql.DB, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: db, table: table}
}

// StoreBatch inserts positions in chunks to bound statement size.
func (a *ClickHouseArchive) StoreBatch(ctx context.Context, positions []models.CanonicalVesselState) error {
	if len(positions) == 0 {
		return nil
	}

	const chunkSize = 2000
	for start := 0; start < len(positions); start += chunkSize {
		end := start + chunkSize
		if end > len(positions) {
			end = len(positions)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, s := range positions[start:end] {
			p := s.Position
			if p.MMSI == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				p.Timestamp,
				p.MMSI,
				p.Latitude,
				p.Longitude,
				p.SpeedKnots,
				p.Heading,
				p.Provider,
				p.Confidence,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, mmsi, latitude, longitude, speed_knots, heading, provider, confidence) VALUES %s",
			a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	return nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

var _ drepo.Archive = (*ClickHouseArchive)(nil)

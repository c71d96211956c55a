package repository

import (
	"context"
	"time"

	"MarinePulse/internal/domain/models"
)

// ProviderClient fetches raw records from one external source. Implementations
// are a closed set selected via the provider registry at startup; each one
// respects its own wire format and leaves schema mapping to the normalizer.
type ProviderClient interface {
	Name() string
	Kind() models.DataKind
	Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error)
	Close() error
}

// CredentialVault owns per-provider key material and quota counters.
type CredentialVault interface {
	// Acquire returns the credential for a provider or fails fast with
	// ErrQuotaExceeded / ErrProviderDegraded. It never blocks.
	Acquire(providerID string) (*models.ProviderCredential, error)
	// Record reports a call outcome and its quota cost back to the vault.
	Record(providerID string, success bool, cost int)
	// Refund returns the Acquire token when the call was never made.
	Refund(providerID string)
	// Invalidate marks a credential rejected by the provider; Acquire
	// refuses it until key material is replaced.
	Invalidate(providerID string)
}

// StateStore holds the canonical state read by the external query layer.
// A cycle's writes land atomically; readers never observe a half-applied
// cycle.
type StateStore interface {
	ApplyCycle(vessels []models.CanonicalVesselState, ports []models.CanonicalPortState)
	Vessel(mmsi string) (*models.CanonicalVesselState, error)
	Port(portID string) (*models.CanonicalPortState, error)
	Vessels() []models.CanonicalVesselState
	Ports() []models.CanonicalPortState
	Weather() []models.WeatherObservation
	SetWeather(obs []models.WeatherObservation)
}

// Delivery is the external collaborator that actually sends notifications
// (email/SMS/webhook/queue). The core hands each event over at most once
// successfully.
type Delivery interface {
	Name() string
	Deliver(ctx context.Context, ev models.NotificationEvent) error
}

// OpsAlerter receives operational failures that need human action, distinct
// from domain notifications: rejected credentials and whole data kinds going
// dark.
type OpsAlerter interface {
	Alert(ctx context.Context, kind string, providerID string, err error)
}

// Archive persists reconciled positions outside the hot path, for the
// excluded query/history layer.
type Archive interface {
	StoreBatch(ctx context.Context, positions []models.CanonicalVesselState) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics is the observability recorder used across the pipeline.
type Metrics interface {
	RecordFetched(provider string, count int)
	RecordMalformed(provider string)
	RecordProviderError(provider, kind string)
	RecordQuotaExceeded(provider string)
	RecordCycle(result string, d time.Duration)
	RecordNotification(result string)
	RecordCongestion(portID string, value float64)
}

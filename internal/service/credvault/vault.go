package credvault

import (
	"fmt"
	"sync"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	"MarinePulse/internal/service/ratelimit"
)

const (
	degradeAfter   = 3 // consecutive failures before backoff kicks in
	backoffInitial = 30 * time.Second
)

// entry is the vault's bookkeeping for one provider. All mutation happens
// under its own mutex so concurrent fetches for different providers never
// contend with each other.
type entry struct {
	mu sync.Mutex

	key          string
	capacity     float64
	refillPerSec float64

	consecFails int
	degradedTil time.Time
	backoff     time.Duration
	lastErrorAt time.Time
	invalid     bool
}

// Vault implements domain CredentialVault: per-provider key material plus
// token-bucket quota and failure backoff.
type Vault struct {
	limiter    *ratelimit.Limiter
	backoffCap time.Duration

	mu        sync.RWMutex
	providers map[string]*entry
}

// Option configures the Vault.
type Option func(*Vault)

// WithBackoffCeiling caps the degraded-provider backoff.
func WithBackoffCeiling(d time.Duration) Option {
	return func(v *Vault) {
		if d > 0 {
			v.backoffCap = d
		}
	}
}

func New(opts ...Option) *Vault {
	v := &Vault{
		limiter:    ratelimit.New(),
		backoffCap: 10 * time.Minute,
		providers:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Register adds a provider credential with its quota policy. Quota is the
// token count per rolling window.
func (v *Vault) Register(providerID, key string, quota int, window time.Duration) {
	if quota <= 0 {
		quota = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	v.mu.Lock()
	v.providers[providerID] = &entry{
		key:          key,
		capacity:     float64(quota),
		refillPerSec: float64(quota) / window.Seconds(),
		backoff:      backoffInitial,
	}
	v.mu.Unlock()
}

// Acquire returns the provider's credential after reserving one quota token.
// It fails fast: a spent quota or a degraded provider is reported
// immediately, the caller skips the provider for this cycle.
func (v *Vault) Acquire(providerID string) (*models.ProviderCredential, error) {
	e := v.entry(providerID)
	if e == nil {
		return nil, fmt.Errorf("provider %q not registered: %w", providerID, drepo.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.invalid {
		return nil, fmt.Errorf("provider %q: %w", providerID, drepo.ErrAuthRejected)
	}
	if now := time.Now(); now.Before(e.degradedTil) {
		return nil, fmt.Errorf("provider %q backing off until %s: %w",
			providerID, e.degradedTil.Format(time.RFC3339), drepo.ErrProviderDegraded)
	}
	if !v.limiter.Take(providerID, e.capacity, e.refillPerSec, 1) {
		return nil, fmt.Errorf("provider %q: %w", providerID, drepo.ErrQuotaExceeded)
	}

	return &models.ProviderCredential{
		ProviderID:     providerID,
		Key:            e.key,
		QuotaRemaining: v.limiter.Remaining(providerID, e.capacity, e.refillPerSec),
		QuotaResetAt:   v.limiter.ResetAt(providerID, e.capacity, e.refillPerSec),
		LastErrorAt:    e.lastErrorAt,
	}, nil
}

// Record reports a call outcome. Extra quota cost beyond the token reserved
// by Acquire is charged here; consecutive failures degrade the provider with
// exponential backoff up to the ceiling.
func (v *Vault) Record(providerID string, success bool, cost int) {
	e := v.entry(providerID)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cost > 1 {
		// Acquire already took one token.
		v.limiter.Take(providerID, e.capacity, e.refillPerSec, cost-1)
	}

	if success {
		e.consecFails = 0
		e.backoff = backoffInitial
		return
	}

	e.consecFails++
	e.lastErrorAt = time.Now()
	if e.consecFails >= degradeAfter {
		e.degradedTil = time.Now().Add(e.backoff)
		e.backoff *= 2
		if e.backoff > v.backoffCap {
			e.backoff = v.backoffCap
		}
	}
}

// Refund returns the token reserved by Acquire when the call was never
// made, so a skipped fetch does not count against the provider's quota.
func (v *Vault) Refund(providerID string) {
	e := v.entry(providerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v.limiter.Refund(providerID, e.capacity, e.refillPerSec, 1)
}

// Invalidate marks a provider's credential as rejected; Acquire refuses it
// until the key is replaced via Register (config reload).
func (v *Vault) Invalidate(providerID string) {
	e := v.entry(providerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.invalid = true
	e.mu.Unlock()
}

func (v *Vault) entry(providerID string) *entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.providers[providerID]
}

var _ drepo.CredentialVault = (*Vault)(nil)

package models

import "time"

// ProviderCredential is the key material and quota bookkeeping for one
// provider. Owned exclusively by the credential vault; provider clients
// report call outcomes back through the vault, never mutate this directly.
type ProviderCredential struct {
	ProviderID     string
	Key            string
	QuotaRemaining int
	QuotaResetAt   time.Time
	LastErrorAt    time.Time
}

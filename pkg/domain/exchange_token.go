package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeToken is a short-lived, single-use token bridging an external
// auth step (an OAuth callback, for example) to session issuance.
//
// Consumption is a storage-level overwrite of the timestamp; validity,
// not consumption, is what prevents logical reuse.
type ExchangeToken struct {
	ID         uuid.UUID
	TokenHash  string
	UserID     uuid.UUID
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time

	// User is the owning user with identifiers, populated on lookups
	// and on creation.
	User *User
}

// IsExpired reports whether the token's lifetime has passed.
func (t *ExchangeToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsConsumed reports whether the token has already been exchanged.
func (t *ExchangeToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// IsValid reports whether the token is neither consumed nor expired.
func (t *ExchangeToken) IsValid() bool {
	return !t.IsConsumed() && !t.IsExpired()
}

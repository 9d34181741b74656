package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a long-lived credential that can be rotated.
//
// Rotation links tokens into a singly-linked family via ReplacedBy:
// each rotated-out token is revoked and points at its successor. A
// revoked token is terminal for authentication but stays addressable
// so the family chain can be walked on reuse detection.
type RefreshToken struct {
	ID         uuid.UUID
	TokenHash  string
	UserID     uuid.UUID
	ExpiresAt  time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID

	// User is the owning user with identifiers, populated on lookups.
	User *User
}

// IsExpired reports whether the token's lifetime has passed.
func (t *RefreshToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsRevoked reports whether the token has been revoked.
// Expiration and revocation are independent causes of invalidity;
// callers telling them apart for audit logging use these separately.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsValid reports whether the token is neither revoked nor expired.
func (t *RefreshToken) IsValid() bool {
	return !t.IsRevoked() && !t.IsExpired()
}

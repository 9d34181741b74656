package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery channel a verification or reset code is
// scoped to. Codes are keyed by channel value (the email address or
// phone number), not by a specific identifier row, because a code may
// be issued before the identifier is confirmed.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Code is an expiring, attempt-limited verification or password-reset
// code. Verification and reset codes share this shape but live in
// separate namespaces: a reset code can never satisfy a verification
// lookup.
type Code struct {
	ID             uuid.UUID
	Channel        Channel
	ChannelValue   string
	CodeHash       string
	UserID         uuid.UUID
	ExpiresAt      time.Time
	FailedAttempts int
	InvalidatedAt  *time.Time
	CreatedAt      time.Time

	// User is the owning user with identifiers, populated on lookups.
	User *User
}

// IsExpired reports whether the code's lifetime has passed.
func (c *Code) IsExpired() bool {
	return !time.Now().Before(c.ExpiresAt)
}

// IsValid reports whether the code is fresh under the caller's attempt
// policy: not expired and under maxAttempts failures. The store owns
// the counter, the caller owns the threshold.
//
// Invalidation is enforced at lookup time rather than here, so a
// caller holding an already-fetched code can still ask whether it was
// fresh independent of invalidation races.
func (c *Code) IsValid(maxAttempts int) bool {
	return !c.IsExpired() && c.FailedAttempts < maxAttempts
}

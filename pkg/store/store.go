// Package store declares the persistence contracts for the credential
// lifecycle engine. Engine logic depends only on these interfaces;
// concrete backends live in pkg/repository (Postgres) and pkg/inmem.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// UserStore manages the identity graph: users and their identifiers.
type UserStore interface {
	// Create atomically creates a user with its first identifier.
	// Federated identifiers are created pre-verified, all others start
	// unverified. A non-nil passwordHash is attached to the user.
	// Returns domain.ErrIdentifierTaken if an identifier with the same
	// dedup key already exists.
	Create(ctx context.Context, identifier domain.Identifier, passwordHash *string) (*domain.User, error)

	// GetByID returns the user with all identifiers eager-loaded.
	// Returns domain.ErrUserNotFound on miss.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByIdentifier resolves the user owning the identifier matching
	// the dedup key (kind+value, plus provider for federated), with all
	// identifiers eager-loaded. Returns domain.ErrUserNotFound on miss.
	GetByIdentifier(ctx context.Context, identifier domain.Identifier) (*domain.User, error)

	// AddIdentifier links an additional identifier to an existing user,
	// optionally setting the password hash in the same transaction
	// (used to upgrade a federated-only account to password-capable).
	// Returns domain.ErrIdentifierTaken on dedup-key conflict.
	AddIdentifier(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, passwordHash *string) error

	// MarkVerified sets verified=true on every identifier of the given
	// kind for the user. Only email and phone kinds are verifiable.
	MarkVerified(ctx context.Context, userID uuid.UUID, kind domain.IdentifierKind) error

	// SetPassword unconditionally overwrites the user's password hash.
	SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// Delete removes the user and, through the store-level cascade, all
	// of its identifiers, tokens, and codes.
	Delete(ctx context.Context, userID uuid.UUID) error

	// CreateWithEmail creates a user from a bare email address.
	// Not implemented yet; fails with domain.ErrNotImplemented.
	CreateWithEmail(ctx context.Context, email string, verified bool) (*domain.User, error)

	// CreateWithPhone creates a user from a bare phone number.
	// Not implemented yet; fails with domain.ErrNotImplemented.
	CreateWithPhone(ctx context.Context, phone string, verified bool) (*domain.User, error)
}

// RefreshTokenStore manages issuance, rotation, and revocation of
// refresh tokens, including the reuse-detection family walk.
type RefreshTokenStore interface {
	// Issue creates a new active token for the user.
	Issue(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.RefreshToken, error)

	// Rotate atomically creates the replacement token, revokes old, and
	// links old.ReplacedBy to the new token's id. A crash mid-rotation
	// leaves the prior committed state untouched.
	Rotate(ctx context.Context, userID uuid.UUID, newTokenHash string, expiresAt time.Time, old *domain.RefreshToken) (*domain.RefreshToken, error)

	// GetByHash returns the token with its owning user and identifiers
	// eager-loaded. Returns domain.ErrRefreshTokenNotFound on miss.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// RevokeAllForUser revokes every currently-active token owned by
	// the user (logout-everywhere).
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	// RevokeByHash revokes a single token. Missing hashes are a no-op,
	// not an error.
	RevokeByHash(ctx context.Context, tokenHash string) error

	// RevokeFamilyFrom walks the ReplacedBy chain forward from the
	// given token, revoking every token that is not already revoked.
	// Invoked when an already-revoked token is presented for refresh,
	// the classic signal of token theft. The walk commits one row at a
	// time and terminates on a null link, a missing target, or the hop
	// cap; partial completion only ever leaves a prefix revoked.
	RevokeFamilyFrom(ctx context.Context, token *domain.RefreshToken) error
}

// ExchangeTokenStore manages single-use handoff tokens.
type ExchangeTokenStore interface {
	// Create stores the token and returns it with the owning user and
	// identifiers eager-loaded, in one transaction.
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error)

	// GetByHash returns the token with its owner eager-loaded.
	// Returns domain.ErrExchangeTokenNotFound on miss.
	GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error)

	// Consume stamps ConsumedAt. Idempotent at the storage layer:
	// consuming twice overwrites the timestamp.
	Consume(ctx context.Context, token *domain.ExchangeToken) error

	// CleanupExpired hard-deletes all tokens expiring before the given
	// time, regardless of consumption state, and reports how many were
	// removed. A maintenance sweep, safe to run concurrently with
	// normal traffic.
	CleanupExpired(ctx context.Context, before time.Time) (int64, error)
}

// CodeStore manages expiring, attempt-limited codes scoped to a
// channel value. Two instances exist per backend: one for identity
// verification, one for password restoration.
type CodeStore interface {
	// Create stores a new code. Multiple outstanding codes per channel
	// value are permitted (resend).
	Create(ctx context.Context, userID uuid.UUID, channel domain.Channel, channelValue, codeHash string, expiresAt time.Time) (*domain.Code, error)

	// Get returns the matching non-invalidated code with its owner
	// eager-loaded. Invalidated codes are indistinguishable from codes
	// that never existed: both return domain.ErrCodeNotFound.
	Get(ctx context.Context, channel domain.Channel, channelValue, codeHash string) (*domain.Code, error)

	// InvalidateAll burns every outstanding code for the channel value,
	// preventing an older code from also being redeemable after a
	// successful verification or reset.
	InvalidateAll(ctx context.Context, channel domain.Channel, channelValue string) error

	// IncrementFailedAttempts atomically bumps the failure counter.
	// Callers re-fetch to observe the new value against their own
	// max-attempts policy.
	IncrementFailedAttempts(ctx context.Context, code *domain.Code) error
}

// MagicLinkStore will manage email magic-link tokens.
// Every operation currently fails with domain.ErrNotImplemented.
type MagicLinkStore interface {
	Create(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error)
	InvalidateAll(ctx context.Context, identifier domain.Identifier) error
}

// Store aggregates the per-engine stores of one durable backend.
type Store interface {
	Users() UserStore
	RefreshTokens() RefreshTokenStore
	ExchangeTokens() ExchangeTokenStore
	VerificationCodes() CodeStore
	ResetCodes() CodeStore
	MagicLinks() MagicLinkStore
}

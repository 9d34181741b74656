package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// maxFamilyWalk caps the rotation-chain traversal so cyclic
// replaced_by data cannot produce an unbounded walk.
const maxFamilyWalk = 1000

type refreshTokenStore struct {
	s *Store
}

func (rs *refreshTokenStore) Issue(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.RefreshToken, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	token := &domain.RefreshToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	rs.s.refreshTokens[token.ID] = token
	return copyRefreshToken(token), nil
}

func (rs *refreshTokenStore) Rotate(ctx context.Context, userID uuid.UUID, newTokenHash string, expiresAt time.Time, old *domain.RefreshToken) (*domain.RefreshToken, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	prev, ok := rs.s.refreshTokens[old.ID]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}

	now := time.Now()
	token := &domain.RefreshToken{
		ID:        uuid.New(),
		TokenHash: newTokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	rs.s.refreshTokens[token.ID] = token

	prev.RevokedAt = &now
	prev.ReplacedBy = &token.ID

	old.RevokedAt = copyTimePtr(prev.RevokedAt)
	old.ReplacedBy = copyUUIDPtr(prev.ReplacedBy)

	return copyRefreshToken(token), nil
}

func (rs *refreshTokenStore) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	for _, t := range rs.s.refreshTokens {
		if t.TokenHash == tokenHash {
			out := copyRefreshToken(t)
			user, err := rs.s.getUser(t.UserID)
			if err != nil {
				return nil, err
			}
			out.User = user
			return out, nil
		}
	}
	return nil, domain.ErrRefreshTokenNotFound
}

func (rs *refreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	now := time.Now()
	for _, t := range rs.s.refreshTokens {
		if t.UserID == userID && t.RevokedAt == nil {
			revokedAt := now
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (rs *refreshTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	for _, t := range rs.s.refreshTokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			return nil
		}
	}
	// Missing hash is a no-op, not an error.
	return nil
}

func (rs *refreshTokenStore) RevokeFamilyFrom(ctx context.Context, token *domain.RefreshToken) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	next := &token.ID
	for hops := 0; next != nil && hops < maxFamilyWalk; hops++ {
		current, ok := rs.s.refreshTokens[*next]
		if !ok {
			// Broken chain; everything reachable is already revoked.
			return nil
		}
		if current.RevokedAt == nil {
			now := time.Now()
			current.RevokedAt = &now
		}
		next = current.ReplacedBy
	}
	return nil
}

func copyRefreshToken(t *domain.RefreshToken) *domain.RefreshToken {
	out := *t
	out.RevokedAt = copyTimePtr(t.RevokedAt)
	out.ReplacedBy = copyUUIDPtr(t.ReplacedBy)
	out.User = nil
	return &out
}

package inmem

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/credstore/pkg/domain"
)

func newStoreWithUser(t *testing.T) (*Store, *domain.User) {
	t.Helper()
	s := New()
	user, err := s.Users().Create(context.Background(), emailIdentifier("a@x.com"), strPtr("h1"))
	require.NoError(t, err)
	return s, user
}

func TestRefreshTokens_Rotate(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	expires := time.Now().Add(24 * time.Hour)

	old, err := s.RefreshTokens().Issue(ctx, user.ID, "t1", expires)
	require.NoError(t, err)
	require.True(t, old.IsValid())

	newToken, err := s.RefreshTokens().Rotate(ctx, user.ID, "t2", expires, old)
	require.NoError(t, err)

	assert.True(t, old.IsRevoked())
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, newToken.ID, *old.ReplacedBy)
	assert.True(t, newToken.IsValid())

	// The rotation is visible on re-fetch, not only on the passed value.
	stored, err := s.RefreshTokens().GetByHash(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, stored.IsRevoked())
	require.NotNil(t, stored.ReplacedBy)
	assert.Equal(t, newToken.ID, *stored.ReplacedBy)
}

func TestRefreshTokens_RotateMissingOldToken(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	ghost := &domain.RefreshToken{ID: user.ID} // never issued
	_, err := s.RefreshTokens().Rotate(ctx, user.ID, "t2", time.Now().Add(time.Hour), ghost)
	require.ErrorIs(t, err, domain.ErrRefreshTokenNotFound)
}

func TestRefreshTokens_ReuseDetectionScenario(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	expires := time.Now().Add(24 * time.Hour)

	t1, err := s.RefreshTokens().Issue(ctx, user.ID, "t1", expires)
	require.NoError(t, err)
	t2, err := s.RefreshTokens().Rotate(ctx, user.ID, "t2", expires, t1)
	require.NoError(t, err)
	t3, err := s.RefreshTokens().Rotate(ctx, user.ID, "t3", expires, t2)
	require.NoError(t, err)
	require.True(t, t3.IsValid())

	// Attacker replays t1: the lookup shows it already revoked.
	replayed, err := s.RefreshTokens().GetByHash(ctx, "t1")
	require.NoError(t, err)
	require.True(t, replayed.IsRevoked())

	// The caller responds by revoking the whole family.
	require.NoError(t, s.RefreshTokens().RevokeFamilyFrom(ctx, replayed))

	for _, hash := range []string{"t1", "t2", "t3"} {
		token, err := s.RefreshTokens().GetByHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, token.IsRevoked(), "token %s should be revoked", hash)
	}
}

func TestRefreshTokens_RevokeFamilyLongChain(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	expires := time.Now().Add(24 * time.Hour)

	const chainLen = 8
	first, err := s.RefreshTokens().Issue(ctx, user.ID, "chain-0", expires)
	require.NoError(t, err)

	current := first
	for i := 1; i < chainLen; i++ {
		current, err = s.RefreshTokens().Rotate(ctx, user.ID, fmt.Sprintf("chain-%d", i), expires, current)
		require.NoError(t, err)
	}

	require.NoError(t, s.RefreshTokens().RevokeFamilyFrom(ctx, first))

	for i := 0; i < chainLen; i++ {
		token, err := s.RefreshTokens().GetByHash(ctx, fmt.Sprintf("chain-%d", i))
		require.NoError(t, err)
		assert.True(t, token.IsRevoked(), "chain-%d should be revoked", i)
	}
}

func TestRefreshTokens_RevokeFamilyBrokenChain(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	expires := time.Now().Add(24 * time.Hour)

	t1, err := s.RefreshTokens().Issue(ctx, user.ID, "t1", expires)
	require.NoError(t, err)
	t2, err := s.RefreshTokens().Rotate(ctx, user.ID, "t2", expires, t1)
	require.NoError(t, err)
	t3, err := s.RefreshTokens().Rotate(ctx, user.ID, "t3", expires, t2)
	require.NoError(t, err)

	// Snap the chain in the middle: t1 still points at the now-missing t2.
	s.mu.Lock()
	delete(s.refreshTokens, t2.ID)
	s.mu.Unlock()

	// The walk must terminate at the missing target, not fail.
	require.NoError(t, s.RefreshTokens().RevokeFamilyFrom(ctx, t1))

	got3, err := s.RefreshTokens().GetByHash(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, t3.ID, got3.ID)
	assert.False(t, got3.IsRevoked(), "tokens past the break are unreachable")
}

func TestRefreshTokens_RevokeFamilyCapsCyclicChains(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	expires := time.Now().Add(24 * time.Hour)

	t1, err := s.RefreshTokens().Issue(ctx, user.ID, "t1", expires)
	require.NoError(t, err)
	t2, err := s.RefreshTokens().Rotate(ctx, user.ID, "t2", expires, t1)
	require.NoError(t, err)

	// Corrupt the data into a cycle: t2 points back at t1.
	s.mu.Lock()
	s.refreshTokens[t2.ID].ReplacedBy = &t1.ID
	s.mu.Unlock()

	require.NoError(t, s.RefreshTokens().RevokeFamilyFrom(ctx, t1))

	got2, err := s.RefreshTokens().GetByHash(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, got2.IsRevoked())
}

func TestRefreshTokens_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)
	other, err := s.Users().Create(ctx, emailIdentifier("b@x.com"), nil)
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)

	_, err = s.RefreshTokens().Issue(ctx, user.ID, "u1-a", expires)
	require.NoError(t, err)
	_, err = s.RefreshTokens().Issue(ctx, user.ID, "u1-b", expires)
	require.NoError(t, err)
	_, err = s.RefreshTokens().Issue(ctx, other.ID, "u2-a", expires)
	require.NoError(t, err)

	require.NoError(t, s.RefreshTokens().RevokeAllForUser(ctx, user.ID))

	for _, hash := range []string{"u1-a", "u1-b"} {
		token, err := s.RefreshTokens().GetByHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, token.IsRevoked(), "token %s", hash)
	}

	untouched, err := s.RefreshTokens().GetByHash(ctx, "u2-a")
	require.NoError(t, err)
	assert.False(t, untouched.IsRevoked(), "other user's token must stay active")
}

func TestRefreshTokens_RevokeByHashMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.RefreshTokens().RevokeByHash(ctx, "does-not-exist"))
}

func TestRefreshTokens_GetByHashEagerLoadsOwner(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	_, err := s.RefreshTokens().Issue(ctx, user.ID, "t1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	token, err := s.RefreshTokens().GetByHash(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, token.User)
	assert.Equal(t, user.ID, token.User.ID)
	assert.Equal(t, "a@x.com", token.User.Email())
}

func TestRefreshTokens_ExpiryAndRevocationAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	_, err := s.RefreshTokens().Issue(ctx, user.ID, "expired", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	token, err := s.RefreshTokens().GetByHash(ctx, "expired")
	require.NoError(t, err)
	assert.True(t, token.IsExpired())
	assert.False(t, token.IsRevoked())
	assert.False(t, token.IsValid())
}

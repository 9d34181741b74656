package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/credstore/pkg/domain"
)

func TestExchangeTokens_SingleUseScenario(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	created, err := s.ExchangeTokens().Create(ctx, user.ID, "xt", time.Now().Add(60*time.Second))
	require.NoError(t, err)
	require.NotNil(t, created.User, "creation eager-loads the owner")
	assert.Equal(t, "a@x.com", created.User.Email())

	found, err := s.ExchangeTokens().GetByHash(ctx, "xt")
	require.NoError(t, err)
	require.True(t, found.IsValid())

	require.NoError(t, s.ExchangeTokens().Consume(ctx, found))
	assert.True(t, found.IsConsumed())

	again, err := s.ExchangeTokens().GetByHash(ctx, "xt")
	require.NoError(t, err)
	assert.False(t, again.IsValid())
	assert.True(t, again.IsConsumed())
	assert.False(t, again.IsExpired(), "consumption, not expiry, makes it invalid")
}

func TestExchangeTokens_ConsumeIsIdempotentAtStorage(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	token, err := s.ExchangeTokens().Create(ctx, user.ID, "xt", time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, s.ExchangeTokens().Consume(ctx, token))
	first := *token.ConsumedAt

	// A second consume overwrites the timestamp rather than failing.
	require.NoError(t, s.ExchangeTokens().Consume(ctx, token))
	require.NotNil(t, token.ConsumedAt)
	assert.False(t, token.ConsumedAt.Before(first))
}

func TestExchangeTokens_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	s, user := newStoreWithUser(t)

	_, err := s.ExchangeTokens().Create(ctx, user.ID, "old-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	consumed, err := s.ExchangeTokens().Create(ctx, user.ID, "old-2", time.Now().Add(-time.Second))
	require.NoError(t, err)
	require.NoError(t, s.ExchangeTokens().Consume(ctx, consumed))
	_, err = s.ExchangeTokens().Create(ctx, user.ID, "fresh", time.Now().Add(time.Hour))
	require.NoError(t, err)

	removed, err := s.ExchangeTokens().CleanupExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = s.ExchangeTokens().GetByHash(ctx, "old-1")
	require.ErrorIs(t, err, domain.ErrExchangeTokenNotFound)
	_, err = s.ExchangeTokens().GetByHash(ctx, "old-2")
	require.ErrorIs(t, err, domain.ErrExchangeTokenNotFound)

	_, err = s.ExchangeTokens().GetByHash(ctx, "fresh")
	require.NoError(t, err)
}

func TestExchangeTokens_CreateUnknownUser(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.ExchangeTokens().Create(ctx, uuid.New(), "xt", time.Now().Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

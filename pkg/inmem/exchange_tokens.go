package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

type exchangeTokenStore struct {
	s *Store
}

func (es *exchangeTokenStore) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error) {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	user, err := es.s.getUser(userID)
	if err != nil {
		return nil, err
	}

	token := &domain.ExchangeToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	es.s.exchangeTokens[token.ID] = token

	out := copyExchangeToken(token)
	out.User = user
	return out, nil
}

func (es *exchangeTokenStore) GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error) {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	for _, t := range es.s.exchangeTokens {
		if t.TokenHash == tokenHash {
			out := copyExchangeToken(t)
			user, err := es.s.getUser(t.UserID)
			if err != nil {
				return nil, err
			}
			out.User = user
			return out, nil
		}
	}
	return nil, domain.ErrExchangeTokenNotFound
}

func (es *exchangeTokenStore) Consume(ctx context.Context, token *domain.ExchangeToken) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	stored, ok := es.s.exchangeTokens[token.ID]
	if !ok {
		return domain.ErrExchangeTokenNotFound
	}

	now := time.Now()
	stored.ConsumedAt = &now
	token.ConsumedAt = copyTimePtr(stored.ConsumedAt)
	return nil
}

func (es *exchangeTokenStore) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	var removed int64
	for id, t := range es.s.exchangeTokens {
		if t.ExpiresAt.Before(before) {
			delete(es.s.exchangeTokens, id)
			removed++
		}
	}
	return removed, nil
}

func copyExchangeToken(t *domain.ExchangeToken) *domain.ExchangeToken {
	out := *t
	out.ConsumedAt = copyTimePtr(t.ConsumedAt)
	out.User = nil
	return &out
}

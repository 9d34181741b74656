package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// magicLinkStore is pending future work; every operation fails loudly
// with domain.ErrNotImplemented.
type magicLinkStore struct{}

func (magicLinkStore) Create(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error) {
	return nil, fmt.Errorf("create magic link: %w", domain.ErrNotImplemented)
}

func (magicLinkStore) GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error) {
	return nil, fmt.Errorf("find magic link: %w", domain.ErrNotImplemented)
}

func (magicLinkStore) InvalidateAll(ctx context.Context, identifier domain.Identifier) error {
	return fmt.Errorf("invalidate magic links: %w", domain.ErrNotImplemented)
}

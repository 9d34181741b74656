package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// MagicLinksRepository will handle email magic-link token persistence.
// Pending future work; every operation fails loudly with
// domain.ErrNotImplemented so callers cannot mistake it for not-found.
type MagicLinksRepository struct {
	db *sql.DB
}

// NewMagicLinksRepository creates a new magic links repository.
func NewMagicLinksRepository(db *sql.DB) *MagicLinksRepository {
	return &MagicLinksRepository{db: db}
}

func (r *MagicLinksRepository) Create(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error) {
	return nil, fmt.Errorf("create magic link: %w", domain.ErrNotImplemented)
}

func (r *MagicLinksRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error) {
	return nil, fmt.Errorf("find magic link: %w", domain.ErrNotImplemented)
}

func (r *MagicLinksRepository) InvalidateAll(ctx context.Context, identifier domain.Identifier) error {
	return fmt.Errorf("invalidate magic links: %w", domain.ErrNotImplemented)
}

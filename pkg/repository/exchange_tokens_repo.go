package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// ExchangeTokensRepository handles exchange token persistence.
type ExchangeTokensRepository struct {
	db *sql.DB
}

// NewExchangeTokensRepository creates a new exchange tokens repository.
func NewExchangeTokensRepository(db *sql.DB) *ExchangeTokensRepository {
	return &ExchangeTokensRepository{db: db}
}

// Create stores a new exchange token and returns it with the owning
// user and identifiers eager-loaded, in one transaction. Callers build
// the resulting session immediately after creation and always need the
// identity data.
func (r *ExchangeTokensRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ExchangeToken, error) {
	token := &domain.ExchangeToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO exchange_tokens (id, token_hash, user_id, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.ExecContext(ctx, query,
			token.ID, token.TokenHash, token.UserID, token.ExpiresAt, token.CreatedAt,
		)
		if err != nil {
			return err
		}

		token.User, err = getUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// GetByHash retrieves an exchange token by hash with its owning user
// and identifiers eager-loaded.
func (r *ExchangeTokensRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.ExchangeToken, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, consumed_at, created_at
		FROM exchange_tokens
		WHERE token_hash = $1
	`
	token := &domain.ExchangeToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID, &token.TokenHash, &token.UserID, &token.ExpiresAt,
		&token.ConsumedAt, &token.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExchangeTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	token.User, err = getUser(ctx, r.db, token.UserID)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Consume stamps consumed_at unconditionally. Consuming twice simply
// overwrites the timestamp; validity, not consume, prevents reuse.
func (r *ExchangeTokensRepository) Consume(ctx context.Context, token *domain.ExchangeToken) error {
	now := time.Now()
	query := `
		UPDATE exchange_tokens
		SET consumed_at = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, token.ID, now)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrExchangeTokenNotFound
	}

	token.ConsumedAt = &now
	return nil
}

// CleanupExpired hard-deletes all tokens expiring before the given
// time, consumed or not, and reports how many were removed.
func (r *ExchangeTokensRepository) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM exchange_tokens WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// maxFamilyWalk caps the rotation-chain traversal so corrupted or
// cyclic replaced_by data cannot produce an unbounded walk.
const maxFamilyWalk = 1000

// RefreshTokensRepository handles refresh token persistence.
type RefreshTokensRepository struct {
	db *sql.DB
}

// NewRefreshTokensRepository creates a new refresh tokens repository.
func NewRefreshTokensRepository(db *sql.DB) *RefreshTokensRepository {
	return &RefreshTokensRepository{db: db}
}

// Issue creates a new active refresh token.
func (r *RefreshTokensRepository) Issue(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := insertRefreshToken(ctx, r.db, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Rotate creates the replacement token and revokes the old one in a
// single transaction. A reader never observes the new token without
// also observing its revoked predecessor.
func (r *RefreshTokensRepository) Rotate(ctx context.Context, userID uuid.UUID, newTokenHash string, expiresAt time.Time, old *domain.RefreshToken) (*domain.RefreshToken, error) {
	now := time.Now()
	token := &domain.RefreshToken{
		ID:        uuid.New(),
		TokenHash: newTokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertRefreshToken(ctx, tx, token); err != nil {
			return err
		}

		query := `
			UPDATE refresh_tokens
			SET revoked_at = $2, replaced_by = $3
			WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, query, old.ID, now, token.ID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrRefreshTokenNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	old.RevokedAt = &now
	old.ReplacedBy = &token.ID
	return token, nil
}

// GetByHash retrieves a refresh token by hash with its owning user and
// identifiers eager-loaded. Revoked tokens are still returned: the
// caller needs them for reuse detection and chain traversal.
func (r *RefreshTokensRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, created_at, revoked_at, replaced_by
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	token, err := scanRefreshToken(r.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		return nil, err
	}

	token.User, err = getUser(ctx, r.db, token.UserID)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// RevokeAllForUser revokes every active token owned by the user.
func (r *RefreshTokensRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// RevokeByHash revokes a single token. A missing hash is a no-op.
func (r *RefreshTokensRepository) RevokeByHash(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, tokenHash)
	return err
}

// RevokeFamilyFrom walks the replaced_by chain forward from token,
// revoking every token that is not already revoked. Each update
// commits on its own rather than inside one long transaction, to bound
// lock duration on long chains; the walk only ever sets revoked_at, so
// partial completion on crash leaves a prefix of the chain revoked and
// is safe to resume.
func (r *RefreshTokensRepository) RevokeFamilyFrom(ctx context.Context, token *domain.RefreshToken) error {
	next := &token.ID
	for hops := 0; next != nil && hops < maxFamilyWalk; hops++ {
		query := `
			SELECT id, token_hash, user_id, expires_at, created_at, revoked_at, replaced_by
			FROM refresh_tokens
			WHERE id = $1
		`
		current, err := scanRefreshToken(r.db.QueryRowContext(ctx, query, *next))
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			// Broken chain; revoke what we have reached so far.
			return nil
		}
		if err != nil {
			return err
		}

		if !current.IsRevoked() {
			revoke := `
				UPDATE refresh_tokens
				SET revoked_at = NOW()
				WHERE id = $1 AND revoked_at IS NULL
			`
			if _, err := r.db.ExecContext(ctx, revoke, current.ID); err != nil {
				return err
			}
		}

		next = current.ReplacedBy
	}
	return nil
}

func insertRefreshToken(ctx context.Context, q Querier, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, created_at, revoked_at, replaced_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		token.ID, token.TokenHash, token.UserID, token.ExpiresAt,
		token.CreatedAt, token.RevokedAt, token.ReplacedBy,
	)
	return err
}

func scanRefreshToken(row *sql.Row) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	var replacedBy uuid.NullUUID
	err := row.Scan(
		&token.ID, &token.TokenHash, &token.UserID, &token.ExpiresAt,
		&token.CreatedAt, &token.RevokedAt, &replacedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if replacedBy.Valid {
		token.ReplacedBy = &replacedBy.UUID
	}
	return token, nil
}

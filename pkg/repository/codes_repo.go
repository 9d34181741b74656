package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// CodesRepository handles verification and reset code persistence.
// The two namespaces share the same shape and queries but live in
// separate tables, so a reset code can never satisfy a verification
// lookup.
type CodesRepository struct {
	db    *sql.DB
	table string
}

// NewVerificationCodesRepository creates the repository for
// identity-verification codes.
func NewVerificationCodesRepository(db *sql.DB) *CodesRepository {
	return &CodesRepository{db: db, table: "verification_codes"}
}

// NewResetCodesRepository creates the repository for
// password-restoration codes.
func NewResetCodesRepository(db *sql.DB) *CodesRepository {
	return &CodesRepository{db: db, table: "reset_codes"}
}

// Create stores a new code. There is no uniqueness constraint on codes;
// multiple outstanding codes per channel value are permitted.
func (r *CodesRepository) Create(ctx context.Context, userID uuid.UUID, channel domain.Channel, channelValue, codeHash string, expiresAt time.Time) (*domain.Code, error) {
	code := &domain.Code{
		ID:           uuid.New(),
		Channel:      channel,
		ChannelValue: channelValue,
		CodeHash:     codeHash,
		UserID:       userID,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, channel, channel_value, code_hash, user_id, expires_at, failed_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.Channel, code.ChannelValue, code.CodeHash,
		code.UserID, code.ExpiresAt, code.FailedAttempts, code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return code, nil
}

// Get retrieves a non-invalidated code with its owning user and
// identifiers eager-loaded. An invalidated code is treated as not
// found, indistinguishable from one that never existed.
func (r *CodesRepository) Get(ctx context.Context, channel domain.Channel, channelValue, codeHash string) (*domain.Code, error) {
	query := fmt.Sprintf(`
		SELECT id, channel, channel_value, code_hash, user_id, expires_at, failed_attempts, invalidated_at, created_at
		FROM %s
		WHERE channel = $1 AND channel_value = $2 AND code_hash = $3 AND invalidated_at IS NULL
	`, r.table)
	code := &domain.Code{}
	err := r.db.QueryRowContext(ctx, query, channel, channelValue, codeHash).Scan(
		&code.ID, &code.Channel, &code.ChannelValue, &code.CodeHash,
		&code.UserID, &code.ExpiresAt, &code.FailedAttempts,
		&code.InvalidatedAt, &code.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	code.User, err = getUser(ctx, r.db, code.UserID)
	if err != nil {
		return nil, err
	}
	return code, nil
}

// InvalidateAll burns every outstanding code for the channel value.
// Called after a successful verification or reset so an older code
// cannot also be redeemed.
func (r *CodesRepository) InvalidateAll(ctx context.Context, channel domain.Channel, channelValue string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET invalidated_at = NOW()
		WHERE channel = $1 AND channel_value = $2 AND invalidated_at IS NULL
	`, r.table)
	_, err := r.db.ExecContext(ctx, query, channel, channelValue)
	return err
}

// IncrementFailedAttempts atomically bumps the failure counter on the
// database side. Callers re-fetch to observe the updated value.
func (r *CodesRepository) IncrementFailedAttempts(ctx context.Context, code *domain.Code) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET failed_attempts = failed_attempts + 1
		WHERE id = $1
	`, r.table)
	result, err := r.db.ExecContext(ctx, query, code.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

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

// UsersRepository handles user and identifier persistence.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// Create atomically creates a user with its first identifier.
func (r *UsersRepository) Create(ctx context.Context, identifier domain.Identifier, passwordHash *string) (*domain.User, error) {
	taken, err := r.identifierTaken(ctx, r.db, identifier)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrIdentifierTaken
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	row := &domain.Identifier{
		ID:        uuid.New(),
		UserID:    user.ID,
		Kind:      identifier.Kind,
		Value:     identifier.Value,
		Provider:  identifier.Provider,
		Verified:  identifier.Kind == domain.KindFederated,
		CreatedAt: now,
	}

	err = Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return insertIdentifier(ctx, tx, row)
	})
	if isUniqueViolation(err) {
		// Lost a race with a concurrent registration.
		return nil, domain.ErrIdentifierTaken
	}
	if err != nil {
		return nil, err
	}

	user.Identifiers = []*domain.Identifier{row}
	return user, nil
}

// GetByID retrieves a user by ID with all identifiers eager-loaded.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return getUser(ctx, r.db, id)
}

// GetByIdentifier resolves the user owning the matching identifier,
// with all identifiers eager-loaded.
func (r *UsersRepository) GetByIdentifier(ctx context.Context, identifier domain.Identifier) (*domain.User, error) {
	query := `
		SELECT user_id FROM identifiers
		WHERE kind = $1 AND value = $2
	`
	args := []any{identifier.Kind, identifier.Value}
	if identifier.Kind == domain.KindFederated {
		query += ` AND provider = $3`
		args = append(args, identifier.Provider)
	}

	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return getUser(ctx, r.db, userID)
}

// AddIdentifier links an additional identifier to an existing user,
// optionally updating the password hash in the same transaction.
func (r *UsersRepository) AddIdentifier(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, passwordHash *string) error {
	taken, err := r.identifierTaken(ctx, r.db, identifier)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrIdentifierTaken
	}

	row := &domain.Identifier{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      identifier.Kind,
		Value:     identifier.Value,
		Provider:  identifier.Provider,
		Verified:  identifier.Kind == domain.KindFederated,
		CreatedAt: time.Now(),
	}

	err = Tx(ctx, r.db, func(tx *sql.Tx) error {
		if passwordHash != nil {
			if err := setPassword(ctx, tx, userID, *passwordHash); err != nil {
				return err
			}
		}
		return insertIdentifier(ctx, tx, row)
	})
	if isUniqueViolation(err) {
		return domain.ErrIdentifierTaken
	}
	return err
}

// MarkVerified sets verified=true on every identifier of the given kind
// for the user. A user with several identifiers of one kind has them
// all verified at once.
func (r *UsersRepository) MarkVerified(ctx context.Context, userID uuid.UUID, kind domain.IdentifierKind) error {
	if kind != domain.KindEmail && kind != domain.KindPhone {
		return fmt.Errorf("%w: cannot mark %q identifiers verified", domain.ErrUnexpectedState, kind)
	}

	query := `
		UPDATE identifiers
		SET verified = true
		WHERE user_id = $1 AND kind = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, kind)
	return err
}

// SetPassword unconditionally overwrites the user's password hash.
func (r *UsersRepository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return setPassword(ctx, r.db, userID, passwordHash)
}

// Delete permanently deletes a user. Identifiers, refresh tokens,
// exchange tokens, and codes are removed by the database cascade.
func (r *UsersRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateWithEmail creates a user from a bare email address.
func (r *UsersRepository) CreateWithEmail(ctx context.Context, email string, verified bool) (*domain.User, error) {
	return nil, fmt.Errorf("create with email: %w", domain.ErrNotImplemented)
}

// CreateWithPhone creates a user from a bare phone number.
func (r *UsersRepository) CreateWithPhone(ctx context.Context, phone string, verified bool) (*domain.User, error) {
	return nil, fmt.Errorf("create with phone: %w", domain.ErrNotImplemented)
}

func (r *UsersRepository) identifierTaken(ctx context.Context, q Querier, identifier domain.Identifier) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM identifiers WHERE kind = $1 AND value = $2)`
	args := []any{identifier.Kind, identifier.Value}
	if identifier.Kind == domain.KindFederated {
		query = `SELECT EXISTS(SELECT 1 FROM identifiers WHERE kind = $1 AND value = $2 AND provider = $3)`
		args = append(args, identifier.Provider)
	}

	var exists bool
	err := q.QueryRowContext(ctx, query, args...).Scan(&exists)
	return exists, err
}

func insertUser(ctx context.Context, q Querier, user *domain.User) error {
	query := `
		INSERT INTO users (id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.ExecContext(ctx, query, user.ID, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func insertIdentifier(ctx context.Context, q Querier, id *domain.Identifier) error {
	query := `
		INSERT INTO identifiers (id, user_id, kind, value, provider, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query, id.ID, id.UserID, id.Kind, id.Value, id.Provider, id.Verified, id.CreatedAt)
	return err
}

func setPassword(ctx context.Context, q Querier, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// getUser loads a user row and its identifiers in insertion order.
func getUser(ctx context.Context, q Querier, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user := &domain.User{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Identifiers, err = loadIdentifiers(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func loadIdentifiers(ctx context.Context, q Querier, userID uuid.UUID) ([]*domain.Identifier, error) {
	query := `
		SELECT id, user_id, kind, value, provider, verified, created_at
		FROM identifiers
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identifiers []*domain.Identifier
	for rows.Next() {
		id := &domain.Identifier{}
		err := rows.Scan(&id.ID, &id.UserID, &id.Kind, &id.Value, &id.Provider, &id.Verified, &id.CreatedAt)
		if err != nil {
			return nil, err
		}
		identifiers = append(identifiers, id)
	}
	return identifiers, rows.Err()
}

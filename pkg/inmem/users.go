package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

type userStore struct {
	s *Store
}

func (us *userStore) Create(ctx context.Context, identifier domain.Identifier, passwordHash *string) (*domain.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, existing := range us.s.identifiers {
		if identifierMatches(existing, identifier) {
			return nil, domain.ErrIdentifierTaken
		}
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		PasswordHash: copyStr(passwordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	row := &domain.Identifier{
		ID:        uuid.New(),
		UserID:    user.ID,
		Kind:      identifier.Kind,
		Value:     identifier.Value,
		Provider:  copyStr(identifier.Provider),
		Verified:  identifier.Kind == domain.KindFederated,
		CreatedAt: now,
	}

	us.s.users[user.ID] = user
	us.s.identifiers = append(us.s.identifiers, row)

	return us.s.getUser(user.ID)
}

func (us *userStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	return us.s.getUser(id)
}

func (us *userStore) GetByIdentifier(ctx context.Context, identifier domain.Identifier) (*domain.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, existing := range us.s.identifiers {
		if identifierMatches(existing, identifier) {
			return us.s.getUser(existing.UserID)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (us *userStore) AddIdentifier(ctx context.Context, userID uuid.UUID, identifier domain.Identifier, passwordHash *string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	user, ok := us.s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}

	for _, existing := range us.s.identifiers {
		if identifierMatches(existing, identifier) {
			return domain.ErrIdentifierTaken
		}
	}

	now := time.Now()
	if passwordHash != nil {
		user.PasswordHash = copyStr(passwordHash)
		user.UpdatedAt = now
	}

	us.s.identifiers = append(us.s.identifiers, &domain.Identifier{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      identifier.Kind,
		Value:     identifier.Value,
		Provider:  copyStr(identifier.Provider),
		Verified:  identifier.Kind == domain.KindFederated,
		CreatedAt: now,
	})
	return nil
}

func (us *userStore) MarkVerified(ctx context.Context, userID uuid.UUID, kind domain.IdentifierKind) error {
	if kind != domain.KindEmail && kind != domain.KindPhone {
		return fmt.Errorf("%w: cannot mark %q identifiers verified", domain.ErrUnexpectedState, kind)
	}

	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, ident := range us.s.identifiers {
		if ident.UserID == userID && ident.Kind == kind {
			ident.Verified = true
		}
	}
	return nil
}

func (us *userStore) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	user, ok := us.s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = &passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

// Delete removes the user and cascades to identifiers, refresh tokens,
// exchange tokens, and both code namespaces, the same way the database
// foreign keys do.
func (us *userStore) Delete(ctx context.Context, userID uuid.UUID) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	if _, ok := us.s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(us.s.users, userID)

	kept := us.s.identifiers[:0]
	for _, ident := range us.s.identifiers {
		if ident.UserID != userID {
			kept = append(kept, ident)
		}
	}
	us.s.identifiers = kept

	for id, t := range us.s.refreshTokens {
		if t.UserID == userID {
			delete(us.s.refreshTokens, id)
		}
	}
	for id, t := range us.s.exchangeTokens {
		if t.UserID == userID {
			delete(us.s.exchangeTokens, id)
		}
	}
	for id, c := range us.s.verificationCodes {
		if c.UserID == userID {
			delete(us.s.verificationCodes, id)
		}
	}
	for id, c := range us.s.resetCodes {
		if c.UserID == userID {
			delete(us.s.resetCodes, id)
		}
	}
	return nil
}

func (us *userStore) CreateWithEmail(ctx context.Context, email string, verified bool) (*domain.User, error) {
	return nil, fmt.Errorf("create with email: %w", domain.ErrNotImplemented)
}

func (us *userStore) CreateWithPhone(ctx context.Context, phone string, verified bool) (*domain.User, error) {
	return nil, fmt.Errorf("create with phone: %w", domain.ErrNotImplemented)
}

// Package inmem implements the store contracts in process memory. It
// backs the engine test suites and local development; semantics match
// the Postgres implementation, including the user-deletion cascade.
package inmem

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
	"github.com/tendant/credstore/pkg/store"
)

// Store holds all records behind a single mutex. Records never leave
// the store: every lookup returns a copy, mirroring the row-scan
// behavior of the SQL backend.
type Store struct {
	mu                sync.Mutex
	users             map[uuid.UUID]*domain.User
	identifiers       []*domain.Identifier
	refreshTokens     map[uuid.UUID]*domain.RefreshToken
	exchangeTokens    map[uuid.UUID]*domain.ExchangeToken
	verificationCodes map[uuid.UUID]*domain.Code
	resetCodes        map[uuid.UUID]*domain.Code
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:             make(map[uuid.UUID]*domain.User),
		refreshTokens:     make(map[uuid.UUID]*domain.RefreshToken),
		exchangeTokens:    make(map[uuid.UUID]*domain.ExchangeToken),
		verificationCodes: make(map[uuid.UUID]*domain.Code),
		resetCodes:        make(map[uuid.UUID]*domain.Code),
	}
}

func (s *Store) Users() store.UserStore                   { return &userStore{s} }
func (s *Store) RefreshTokens() store.RefreshTokenStore   { return &refreshTokenStore{s} }
func (s *Store) ExchangeTokens() store.ExchangeTokenStore { return &exchangeTokenStore{s} }
func (s *Store) VerificationCodes() store.CodeStore {
	return &codeStore{s: s, codes: s.verificationCodes}
}
func (s *Store) ResetCodes() store.CodeStore {
	return &codeStore{s: s, codes: s.resetCodes}
}
func (s *Store) MagicLinks() store.MagicLinkStore { return &magicLinkStore{} }

// getUser assembles a copy of the user with its identifiers in
// insertion order. Callers must hold s.mu.
func (s *Store) getUser(id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	out := &domain.User{
		ID:           u.ID,
		PasswordHash: copyStr(u.PasswordHash),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, ident := range s.identifiers {
		if ident.UserID == id {
			out.Identifiers = append(out.Identifiers, copyIdentifier(ident))
		}
	}
	return out, nil
}

// identifierMatches reports whether an existing identifier collides
// with the dedup key of the given one: (kind, value) for non-federated,
// (kind, value, provider) for federated.
func identifierMatches(existing *domain.Identifier, id domain.Identifier) bool {
	if existing.Kind != id.Kind || existing.Value != id.Value {
		return false
	}
	if id.Kind != domain.KindFederated {
		return true
	}
	return strEqual(existing.Provider, id.Provider)
}

func strEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyIdentifier(id *domain.Identifier) *domain.Identifier {
	out := *id
	out.Provider = copyStr(id.Provider)
	return &out
}

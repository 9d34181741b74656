// Package repository implements the store contracts on Postgres using
// database/sql and lib/pq. Schema creation is explicit: callers apply
// the migrations in internal/migrations at bootstrap; constructing a
// repository never touches the schema.
package repository

import (
	"database/sql"

	"github.com/tendant/credstore/pkg/store"
)

// Store aggregates the Postgres-backed stores over one connection pool.
type Store struct {
	users             *UsersRepository
	refreshTokens     *RefreshTokensRepository
	exchangeTokens    *ExchangeTokensRepository
	verificationCodes *CodesRepository
	resetCodes        *CodesRepository
	magicLinks        *MagicLinksRepository
}

var _ store.Store = (*Store)(nil)

// NewStore creates the aggregate store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		users:             NewUsersRepository(db),
		refreshTokens:     NewRefreshTokensRepository(db),
		exchangeTokens:    NewExchangeTokensRepository(db),
		verificationCodes: NewVerificationCodesRepository(db),
		resetCodes:        NewResetCodesRepository(db),
		magicLinks:        NewMagicLinksRepository(db),
	}
}

func (s *Store) Users() store.UserStore                 { return s.users }
func (s *Store) RefreshTokens() store.RefreshTokenStore { return s.refreshTokens }
func (s *Store) ExchangeTokens() store.ExchangeTokenStore {
	return s.exchangeTokens
}
func (s *Store) VerificationCodes() store.CodeStore { return s.verificationCodes }
func (s *Store) ResetCodes() store.CodeStore        { return s.resetCodes }
func (s *Store) MagicLinks() store.MagicLinkStore   { return s.magicLinks }

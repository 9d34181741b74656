package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdentifierKind is the kind of login handle an identifier represents.
type IdentifierKind string

const (
	KindEmail     IdentifierKind = "email"
	KindPhone     IdentifierKind = "phone"
	KindUsername  IdentifierKind = "username"
	KindFederated IdentifierKind = "federated"
)

// Identifier is a claimed login handle (email, phone, username, or a
// federated provider subject) linked to a user.
//
// Uniqueness is enforced on (kind, value), except for federated
// identifiers where it is (kind, value, provider): the same external
// subject id may legitimately exist across providers.
type Identifier struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      IdentifierKind
	Value     string
	Provider  *string
	Verified  bool
	CreatedAt time.Time
}

// User is the account all tokens and codes hang off of.
// Identifiers are kept in insertion order.
type User struct {
	ID           uuid.UUID
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Identifiers  []*Identifier
}

func (u *User) identifier(kind IdentifierKind) *Identifier {
	for _, id := range u.Identifiers {
		if id.Kind == kind {
			return id
		}
	}
	return nil
}

// Email returns the value of the first email identifier, or "" if none.
func (u *User) Email() string {
	if id := u.identifier(KindEmail); id != nil {
		return id.Value
	}
	return ""
}

// Phone returns the value of the first phone identifier, or "" if none.
func (u *User) Phone() string {
	if id := u.identifier(KindPhone); id != nil {
		return id.Value
	}
	return ""
}

// Username returns the value of the first username identifier, or "" if none.
func (u *User) Username() string {
	if id := u.identifier(KindUsername); id != nil {
		return id.Value
	}
	return ""
}

// IsAnonymous reports whether the user has no email, phone, or username
// identifier. Federated identifiers do not count.
func (u *User) IsAnonymous() bool {
	return u.identifier(KindEmail) == nil &&
		u.identifier(KindPhone) == nil &&
		u.identifier(KindUsername) == nil
}

// IsEmailVerified reports the verified flag of the first email identifier.
func (u *User) IsEmailVerified() bool {
	id := u.identifier(KindEmail)
	return id != nil && id.Verified
}

// IsPhoneVerified reports the verified flag of the first phone identifier.
func (u *User) IsPhoneVerified() bool {
	id := u.identifier(KindPhone)
	return id != nil && id.Verified
}

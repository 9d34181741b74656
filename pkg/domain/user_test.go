package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func identifierOf(kind IdentifierKind, value string, verified bool) *Identifier {
	return &Identifier{
		ID:        uuid.New(),
		Kind:      kind,
		Value:     value,
		Verified:  verified,
		CreatedAt: time.Now(),
	}
}

func TestUser_DerivedAccessors(t *testing.T) {
	user := &User{
		ID: uuid.New(),
		Identifiers: []*Identifier{
			identifierOf(KindEmail, "a@x.com", true),
			identifierOf(KindEmail, "b@x.com", false),
			identifierOf(KindPhone, "+15550100", false),
			identifierOf(KindUsername, "alice", false),
		},
	}

	if got := user.Email(); got != "a@x.com" {
		t.Errorf("Email() = %q, want first email in insertion order %q", got, "a@x.com")
	}
	if got := user.Phone(); got != "+15550100" {
		t.Errorf("Phone() = %q, want %q", got, "+15550100")
	}
	if got := user.Username(); got != "alice" {
		t.Errorf("Username() = %q, want %q", got, "alice")
	}
	if !user.IsEmailVerified() {
		t.Error("IsEmailVerified() = false, want verified flag of first email identifier")
	}
	if user.IsPhoneVerified() {
		t.Error("IsPhoneVerified() = true, want false")
	}
	if user.IsAnonymous() {
		t.Error("IsAnonymous() = true, want false")
	}
}

func TestUser_IsAnonymous(t *testing.T) {
	provider := "google"

	tests := []struct {
		name        string
		identifiers []*Identifier
		want        bool
	}{
		{
			name:        "no identifiers",
			identifiers: nil,
			want:        true,
		},
		{
			name: "only federated identifier",
			identifiers: []*Identifier{
				{Kind: KindFederated, Value: "sub-123", Provider: &provider, Verified: true},
			},
			want: true,
		},
		{
			name: "email identifier",
			identifiers: []*Identifier{
				identifierOf(KindEmail, "a@x.com", false),
			},
			want: false,
		},
		{
			name: "username identifier",
			identifiers: []*Identifier{
				identifierOf(KindUsername, "alice", false),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{ID: uuid.New(), Identifiers: tt.identifiers}
			if got := user.IsAnonymous(); got != tt.want {
				t.Errorf("IsAnonymous() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_AccessorsEmptyWhenMissing(t *testing.T) {
	user := &User{ID: uuid.New()}

	if got := user.Email(); got != "" {
		t.Errorf("Email() = %q, want empty", got)
	}
	if user.IsEmailVerified() {
		t.Error("IsEmailVerified() = true for user without email identifier")
	}
	if user.IsPhoneVerified() {
		t.Error("IsPhoneVerified() = true for user without phone identifier")
	}
}

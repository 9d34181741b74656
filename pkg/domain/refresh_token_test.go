package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRefreshToken_Validity(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		expiresAt   time.Time
		revokedAt   *time.Time
		wantExpired bool
		wantRevoked bool
		wantValid   bool
	}{
		{
			name:      "active token",
			expiresAt: future,
			wantValid: true,
		},
		{
			name:        "expired token",
			expiresAt:   past,
			wantExpired: true,
		},
		{
			name:        "revoked token",
			expiresAt:   future,
			revokedAt:   &past,
			wantRevoked: true,
		},
		{
			name:        "revoked and expired",
			expiresAt:   past,
			revokedAt:   &past,
			wantExpired: true,
			wantRevoked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &RefreshToken{
				ID:        uuid.New(),
				ExpiresAt: tt.expiresAt,
				RevokedAt: tt.revokedAt,
			}

			// Expiration and revocation are independent causes and must
			// stay separately observable for audit logging.
			if got := token.IsExpired(); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if got := token.IsRevoked(); got != tt.wantRevoked {
				t.Errorf("IsRevoked() = %v, want %v", got, tt.wantRevoked)
			}
			if got := token.IsValid(); got != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

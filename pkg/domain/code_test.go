package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCode_IsValid(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name           string
		expiresAt      time.Time
		failedAttempts int
		maxAttempts    int
		want           bool
	}{
		{
			name:        "fresh code under limit",
			expiresAt:   future,
			maxAttempts: 5,
			want:        true,
		},
		{
			name:           "one attempt left",
			expiresAt:      future,
			failedAttempts: 4,
			maxAttempts:    5,
			want:           true,
		},
		{
			name:           "at max attempts",
			expiresAt:      future,
			failedAttempts: 5,
			maxAttempts:    5,
			want:           false,
		},
		{
			name:           "over max attempts",
			expiresAt:      future,
			failedAttempts: 6,
			maxAttempts:    5,
			want:           false,
		},
		{
			name:        "expired",
			expiresAt:   past,
			maxAttempts: 5,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := &Code{
				ID:             uuid.New(),
				Channel:        ChannelEmail,
				ChannelValue:   "a@x.com",
				ExpiresAt:      tt.expiresAt,
				FailedAttempts: tt.failedAttempts,
			}
			if got := code.IsValid(tt.maxAttempts); got != tt.want {
				t.Errorf("IsValid(%d) = %v, want %v", tt.maxAttempts, got, tt.want)
			}
		})
	}
}

func TestCode_InvalidationDoesNotAffectFreshness(t *testing.T) {
	// Invalidation is enforced at lookup time, not in the predicate: a
	// caller holding an already-fetched code can still ask whether it
	// was theoretically fresh.
	now := time.Now()
	code := &Code{
		ID:            uuid.New(),
		Channel:       ChannelPhone,
		ChannelValue:  "+15550100",
		ExpiresAt:     now.Add(10 * time.Minute),
		InvalidatedAt: &now,
	}

	if !code.IsValid(3) {
		t.Error("IsValid() = false for invalidated but fresh code, want true")
	}
	if code.IsExpired() {
		t.Error("IsExpired() = true, want false")
	}
}

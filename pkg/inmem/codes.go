package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/credstore/pkg/domain"
)

// codeStore serves one code namespace; the verification and reset
// views share the mutex but write to different maps.
type codeStore struct {
	s     *Store
	codes map[uuid.UUID]*domain.Code
}

func (cs *codeStore) Create(ctx context.Context, userID uuid.UUID, channel domain.Channel, channelValue, codeHash string, expiresAt time.Time) (*domain.Code, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	code := &domain.Code{
		ID:           uuid.New(),
		Channel:      channel,
		ChannelValue: channelValue,
		CodeHash:     codeHash,
		UserID:       userID,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	cs.codes[code.ID] = code
	return copyCode(code), nil
}

func (cs *codeStore) Get(ctx context.Context, channel domain.Channel, channelValue, codeHash string) (*domain.Code, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	for _, c := range cs.codes {
		if c.Channel != channel || c.ChannelValue != channelValue || c.CodeHash != codeHash {
			continue
		}
		if c.InvalidatedAt != nil {
			// Invalidated codes look exactly like codes that never existed.
			continue
		}
		out := copyCode(c)
		user, err := cs.s.getUser(c.UserID)
		if err != nil {
			return nil, err
		}
		out.User = user
		return out, nil
	}
	return nil, domain.ErrCodeNotFound
}

func (cs *codeStore) InvalidateAll(ctx context.Context, channel domain.Channel, channelValue string) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	now := time.Now()
	for _, c := range cs.codes {
		if c.Channel == channel && c.ChannelValue == channelValue && c.InvalidatedAt == nil {
			invalidatedAt := now
			c.InvalidatedAt = &invalidatedAt
		}
	}
	return nil
}

func (cs *codeStore) IncrementFailedAttempts(ctx context.Context, code *domain.Code) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	stored, ok := cs.codes[code.ID]
	if !ok {
		return domain.ErrCodeNotFound
	}
	stored.FailedAttempts++
	return nil
}

func copyCode(c *domain.Code) *domain.Code {
	out := *c
	out.InvalidatedAt = copyTimePtr(c.InvalidatedAt)
	out.User = nil
	return &out
}

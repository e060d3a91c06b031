package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proppanda/internal/model"
)

const keyPrefix = "proppanda:session:"

// RedisStore keeps session state in Redis as JSON with a sliding TTL, so
// abandoned conversations expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. A zero ttl means sessions never
// expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load restores the state for a thread.
func (s *RedisStore) Load(ctx context.Context, threadID string) (*model.SessionState, error) {
	data, err := s.client.Get(ctx, keyPrefix+threadID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", threadID, err)
	}

	var state model.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", threadID, err)
	}
	return &state, nil
}

// Save persists the state and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, state *model.SessionState) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.ThreadID, err)
	}

	if err := s.client.Set(ctx, keyPrefix+state.ThreadID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", state.ThreadID, err)
	}
	return nil
}

// Delete removes a thread's state. Deleting a missing thread is not an
// error.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, keyPrefix+threadID).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", threadID, err)
	}
	return nil
}

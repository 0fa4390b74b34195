package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "assist:conversation:"

// RedisStore persists conversation state in Redis with the same TTL semantics
// as MemoryStore. Used when several service replicas must share state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, conversationID string) (*ConversationState, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+conversationID).Bytes()
	if err != nil {
		return nil, false
	}
	var st ConversationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false
	}
	return &st, true
}

func (r *RedisStore) Save(ctx context.Context, state *ConversationState) error {
	if state == nil || state.ConversationID == "" {
		return errors.New("state requires a conversation id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+state.ConversationID, raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, conversationID string) error {
	return r.client.Del(ctx, redisKeyPrefix+conversationID).Err()
}

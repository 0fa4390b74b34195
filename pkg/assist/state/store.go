package state

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store is the keyed conversation-state store. Implementations must evict
// entries after a configurable TTL; "session lives forever" is not supported.
type Store interface {
	Get(ctx context.Context, conversationID string) (*ConversationState, bool)
	Save(ctx context.Context, state *ConversationState) error
	Delete(ctx context.Context, conversationID string) error
}

// MemoryStore keeps conversation state in-process with TTL eviction.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl and are
// purged every purgeInterval.
func NewMemoryStore(ttl, purgeInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	if purgeInterval <= 0 {
		purgeInterval = 10 * time.Minute
	}
	return &MemoryStore{cache: cache.New(ttl, purgeInterval)}
}

func (r *MemoryStore) Get(_ context.Context, conversationID string) (*ConversationState, bool) {
	if x, found := r.cache.Get(conversationID); found {
		return x.(*ConversationState), true
	}
	return nil, false
}

func (r *MemoryStore) Save(_ context.Context, state *ConversationState) error {
	r.cache.Set(state.ConversationID, state, cache.DefaultExpiration)
	return nil
}

func (r *MemoryStore) Delete(_ context.Context, conversationID string) error {
	r.cache.Delete(conversationID)
	return nil
}

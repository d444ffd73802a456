package memory

import (
	"context"
	"time"

	"ai-docsearch-be/pkg/rag/session"
	"ai-docsearch-be/pkg/rag/state"

	"github.com/patrickmn/go-cache"
)

var _ session.Store = (*SessionRepository)(nil)

// SessionRepository keeps session checkpoints in process memory.
type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates a store whose checkpoints expire after ttl.
// A ttl of zero keeps them until deleted.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 6
	}
	return &SessionRepository{
		cache: cache.New(expiration, cleanup),
	}
}

func (r *SessionRepository) Save(_ context.Context, sessionID string, st state.State) error {
	r.cache.Set(sessionID, st.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Load(_ context.Context, sessionID string) (*state.State, bool, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false, nil
	}
	st := x.(state.State).Clone()
	return &st, true, nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

// Count reports how many checkpoints are held.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

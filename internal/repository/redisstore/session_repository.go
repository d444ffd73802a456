package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-docsearch-be/pkg/rag/session"
	"ai-docsearch-be/pkg/rag/state"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "rag:session:"

var _ session.Store = (*SessionRepository)(nil)

// SessionRepository keeps session checkpoints as JSON strings in Redis.
type SessionRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewClient accepts either a redis:// URL or a bare host:port.
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

// NewSessionRepository stores checkpoints under prefix+sessionID. A ttl of
// zero keeps them until deleted.
func NewSessionRepository(rdb *redis.Client, prefix string, ttl time.Duration) *SessionRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *SessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, st state.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return r.rdb.Set(ctx, r.key(sessionID), b, r.ttl).Err()
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*state.State, bool, error) {
	b, err := r.rdb.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var st state.State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %s: %w", sessionID, err)
	}
	return &st, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, r.key(sessionID)).Err()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// MemoryStore — сессии в памяти процесса с TTL.
type MemoryStore struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(ttl, ttl/2), ttl: ttl}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := v.(Session)
	if !ok {
		return nil, fmt.Errorf("session.MemoryStore.Get: unexpected value %T", v)
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.c.Set(s.ID, *s, m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}

const redisKeyPrefix = "admin:session:"

type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	const op = "session.RedisStore.Get"

	data, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	const op = "session.RedisStore.Save"

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+s.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Delete: %w", err)
	}
	return nil
}

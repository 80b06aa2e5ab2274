package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"p9e.in/plotdesk/models"
)

const redisKeyPrefix = "plotdesk:session:"

// RedisStore shares sessions between instances; expiry is the key TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context) (models.SessionState, error) {
	s := newState(r.ttl, time.Now())
	if err := r.put(ctx, s); err != nil {
		return models.SessionState{}, err
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (models.SessionState, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionState{}, ErrNotFound
	}
	if err != nil {
		return models.SessionState{}, fmt.Errorf("redis get session: %w", err)
	}
	var s models.SessionState
	if err := json.Unmarshal(raw, &s); err != nil {
		return models.SessionState{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, state models.SessionState) (models.SessionState, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+state.ID).Result()
	if err != nil {
		return models.SessionState{}, fmt.Errorf("redis exists session: %w", err)
	}
	if n == 0 {
		return models.SessionState{}, ErrNotFound
	}
	state.ExpiresAt = time.Now().Add(r.ttl)
	if err := r.put(ctx, state); err != nil {
		return models.SessionState{}, err
	}
	return state, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) put(ctx context.Context, s models.SessionState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

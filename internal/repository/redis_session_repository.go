package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/studyplan-backend/internal/config"
	"github.com/stemsi/studyplan-backend/internal/model"
)

// RedisSessionStore keeps sessions as JSON values whose TTL matches the
// session expiry, so Redis drops them on its own.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (r *RedisSessionStore) Create(ctx context.Context, sess *model.PlanSession) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, config.CacheKey.PlanSessionKey(sess.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*model.PlanSession, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.PlanSessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess model.PlanSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, sess *model.PlanSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	// SET XX KEEPTTL: only overwrite a live session and leave its expiry alone.
	ok, err := r.rdb.SetXX(ctx, config.CacheKey.PlanSessionKey(sess.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, config.CacheKey.PlanSessionKey(id)).Err()
}

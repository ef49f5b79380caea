package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classroom/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "classroom:session:"

// SessionRedis stores sessions as JSON values that expire with the session.
type SessionRedis struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewSessionRedis(rdb redis.UniversalClient) *SessionRedis {
	return &SessionRedis{rdb: rdb, now: time.Now}
}

var _ SessionStore = (*SessionRedis)(nil)

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *SessionRedis) Create(ctx context.Context, s models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session for user %d already expired", s.UserID)
	}
	s.CreatedAt = nowIfZero(s.CreatedAt)
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session for user %d: %w", s.UserID, err)
	}
	return nil
}

// Get returns (nil, nil) when the key is missing.
func (r *SessionRedis) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *SessionRedis) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op; keys carry their own TTL.
func (r *SessionRedis) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

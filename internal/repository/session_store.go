package repository

import (
	"context"
	"errors"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists transient session progress and arbitrates the
// one-in-flight-action-per-session guarantee.
type SessionStore interface {
	Save(ctx context.Context, sp *model.SessionProgress, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*model.SessionProgress, error)
	Delete(ctx context.Context, sessionID string) error

	// TryLock acquires the session's action guard. Returns false without
	// error when another action is already in flight.
	TryLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, sessionID string) error
}

const (
	sessionKeyPrefix  = "srs:session:"
	sessionLockPrefix = "srs:session_lock:"
)

// RedisSessionStore keeps session progress as JSON blobs in redis with a
// TTL, and the per-session action guard as a SETNX key. Session state is
// ephemeral; losing redis loses open sessions, never review history.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Save(ctx context.Context, sp *model.SessionProgress, ttl time.Duration) error {
	data, err := sp.Marshal()
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+sp.SessionID, data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*model.SessionProgress, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.UnmarshalSessionProgress(data)
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *RedisSessionStore) TryLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, sessionLockPrefix+sessionID, 1, ttl).Result()
}

func (s *RedisSessionStore) Unlock(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionLockPrefix+sessionID).Err()
}

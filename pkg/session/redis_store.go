package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// RedisStore keeps the session record under one Redis key per login, using
// the same "<createdAt>:<token>" encoding as FileStore.
type RedisStore struct {
	client redis.UniversalClient
	login  string
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key prefix (default "otrs:session:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL lets Redis expire the record on its own. Zero keeps it forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a store for login.
func NewRedisStore(client redis.UniversalClient, login string, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		login:  login,
		prefix: constants.DefaultRedisKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key holding the record.
func (s *RedisStore) Key() string { return s.prefix + s.login }

func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	key := s.Key()
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	rec, perr := ParseRecord(raw)
	if perr != nil {
		if err := s.Clear(ctx); err != nil {
			return nil, errors.Join(apierrors.Wrap(apierrors.KindCorruptCache, perr, "session key %s is corrupt", key), err)
		}
		return nil, apierrors.Wrap(apierrors.KindCorruptCache, perr, "session key %s cleared", key)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if err := s.client.Set(ctx, s.Key(), rec.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(), err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.Key()).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.Key(), err)
	}
	return nil
}

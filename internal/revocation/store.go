package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

// Store records revoked token ids until the token would have expired on its own.
type Store interface {
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Consume revokes jti only if it is not revoked yet and reports whether this call did it.
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

const revokedMarker = "true"

type RedisStore struct {
	Client *redis.Client
	Prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		MaxRetries:   2,
	})
	return &RedisStore{Client: client}
}

// MarkRevoked stores the jti with a whole-second expiry so the server receives SET key value EX n.
// The ttl is rounded up: the entry may outlive the token by under a second, never the reverse.
func (s *RedisStore) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return apperr.ErrTokenInvalid
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.Client.Set(ctx, s.key(jti), revokedMarker, wholeSeconds(ttl)).Err(); err != nil {
		return apperr.Unavailable("Revocation store unavailable", err)
	}
	return nil
}

// Consume is SET key value NX EX n. Of several concurrent callers with the same jti exactly one
// gets true.
func (s *RedisStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if jti == "" {
		return false, apperr.ErrTokenInvalid
	}
	if ttl <= 0 {
		return false, nil
	}
	ok, err := s.Client.SetNX(ctx, s.key(jti), revokedMarker, wholeSeconds(ttl)).Result()
	if err != nil {
		return false, apperr.Unavailable("Revocation store unavailable", err)
	}
	return ok, nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	val, err := s.Client.Get(ctx, s.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Unavailable("Revocation store unavailable", err)
	}
	return val == revokedMarker, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

func wholeSeconds(ttl time.Duration) time.Duration {
	if rem := ttl % time.Second; rem != 0 {
		ttl += time.Second - rem
	}
	return ttl
}

func (s *RedisStore) key(jti string) string {
	return s.Prefix + jti
}

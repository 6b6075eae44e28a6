// Package session keeps refresh-token sessions in Redis so that a refresh
// token can be rotated and revoked before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mylib-backend/internal/config"
	"mylib-backend/internal/logger"
)

var ErrSessionNotFound = errors.New("session not found")

const keyPrefix = "session:refresh:"

// Connect creates the client and checks the connection with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// RedisStore maps a refresh token's JTI to the user it was issued to.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func key(jti string) string { return keyPrefix + jti }

func (s *RedisStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	logger.ExternalServiceCall("redis", "SET", "jti", jti)
	err := s.client.Set(ctx, key(jti), userID, ttl).Err()
	logger.ExternalServiceResult("redis", "SET", err)
	return err
}

func (s *RedisStore) Lookup(ctx context.Context, jti string) (int64, error) {
	val, err := s.client.Get(ctx, key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", jti, err)
	}
	return userID, nil
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, key(jti)).Err()
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"podium-server-go/config"
)

const documentPrefix = "podium:doc:" // String: podium:doc:{name} -> JSON document

// RedisService is a Backend keeping each document as a redis string.
type RedisService struct {
	Client *redis.Client
	log    *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, log *zap.Logger) *RedisService {
	return &RedisService{Client: client, log: log.Named("redis")}
}

func getDocumentKey(name string) string {
	return documentPrefix + name
}

// Read returns ErrNotFound when the key is absent.
func (s *RedisService) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.Client.Get(ctx, getDocumentKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		s.log.Error("get document failed", zap.String("document", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get document from Redis: %w", err)
	}
	return data, nil
}

// Write overwrites the whole document.
func (s *RedisService) Write(ctx context.Context, name string, data []byte) error {
	if err := s.Client.Set(ctx, getDocumentKey(name), data, 0).Err(); err != nil {
		s.log.Error("set document failed", zap.String("document", name), zap.Error(err))
		return fmt.Errorf("failed to set document in Redis: %w", err)
	}
	return nil
}

// Delete removes the key.
func (s *RedisService) Delete(ctx context.Context, name string) error {
	if err := s.Client.Del(ctx, getDocumentKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete document from Redis: %w", err)
	}
	return nil
}

// DeleteAll removes the given documents in one pipeline.
func (s *RedisService) DeleteAll(ctx context.Context, names []string) error {
	pipe := s.Client.Pipeline()
	for _, name := range names {
		pipe.Del(ctx, getDocumentKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset documents in Redis: %w", err)
	}
	return nil
}

// InitializeRedisClient creates a client and pings it.
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

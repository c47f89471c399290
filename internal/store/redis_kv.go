// Package store provides the persistent key-value backend for progress
// collections. Values are JSON documents; durability is best-effort, the
// in-memory state held by callers stays authoritative for the session.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the contract the progress layer persists through. Load never
// reports failures upward: a missing key, a transport error, or a corrupt
// value all come back as nil with a logged diagnostic.
type KV interface {
	Load(ctx context.Context, key string) json.RawMessage
	Save(ctx context.Context, key string, value any) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisKV implements KV on a Redis instance.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV connects to Redis and verifies the connection.
func NewRedisKV(redisURL string) (*RedisKV, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisKV{client: client, prefix: "skillforge:"}, nil
}

// NewRedisKVWithClient wraps an existing Redis client.
func NewRedisKVWithClient(client *redis.Client) *RedisKV {
	return &RedisKV{client: client, prefix: "skillforge:"}
}

func (s *RedisKV) key(key string) string {
	return s.prefix + key
}

// Load returns the raw JSON stored under key, or nil if the key is absent,
// unreachable, or does not hold valid JSON.
func (s *RedisKV) Load(ctx context.Context, key string) json.RawMessage {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Printf("store: load %s: %v", key, err)
		return nil
	}
	if !json.Valid([]byte(raw)) {
		log.Printf("store: load %s: stored value is not valid JSON, treating as empty", key)
		return nil
	}
	return json.RawMessage(raw)
}

// Save serializes value and writes it under key with no expiry.
func (s *RedisKV) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisKV) Close() error {
	return s.client.Close()
}

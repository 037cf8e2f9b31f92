package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// RedisTier stores each record under "<namespace>:<run_id>".
type RedisTier struct {
	client    redisClient
	namespace string
	ttl       time.Duration
}

func NewRedisTier(client *goredis.Client, namespace string, ttl time.Duration) (*RedisTier, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, errors.New("namespace is required")
	}
	return &RedisTier{client: client, namespace: namespace, ttl: ttl}, nil
}

func (t *RedisTier) Name() string { return "redis" }

func (t *RedisTier) key(runID string) string {
	return t.namespace + ":" + runID
}

func (t *RedisTier) Put(ctx context.Context, runID string, payload []byte) error {
	if err := t.client.Set(ctx, t.key(runID), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (t *RedisTier) Get(ctx context.Context, runID string) ([]byte, error) {
	payload, err := t.client.Get(ctx, t.key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if len(payload) == 0 {
		return nil, ErrNotFound
	}
	return payload, nil
}

func (t *RedisTier) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *RedisTier) Close() error {
	return t.client.Close()
}

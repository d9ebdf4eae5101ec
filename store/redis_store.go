package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/graph"
)

// redisDialTimeout bounds the initial connectivity check.
const redisDialTimeout = 5 * time.Second

// RedisStore is a Redis-backed implementation of Store for
// distributed deployments. Each workflow is one JSON value under
// <prefix>workflow:<id>.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed workflow store.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger.With(zap.String("component", "redis_store")),
	}, nil
}

// NewRedisStoreWithClient wraps an existing client; used by tests to
// point the store at miniredis.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: keyPrefix,
		logger: logger.With(zap.String("component", "redis_store")),
	}
}

func (s *RedisStore) key(workflowID string) string {
	return s.prefix + "workflow:" + workflowID
}

// Fetch retrieves a workflow graph by id.
func (s *RedisStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	data, err := s.client.Get(ctx, s.key(workflowID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("corrupt workflow document %s: %w", workflowID, err)
	}
	return &g, nil
}

// Save replaces the stored graph and echoes back the persisted form.
func (s *RedisStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	if workflowID == "" || g == nil {
		return nil, ErrInvalidInput
	}

	persisted := normalize(g)
	data, err := json.Marshal(persisted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}

	if err := s.client.Set(ctx, s.key(workflowID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return persisted, nil
}

// Ping checks if the store is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

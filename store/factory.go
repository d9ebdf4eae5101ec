package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// New creates a Store for the configured backend type.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil
	case TypeFile:
		return NewFileStore(cfg.BaseDir)
	case TypeRedis:
		return NewRedisStore(cfg.Redis, logger)
	case TypeSQLite:
		return NewSQLiteStore(cfg.SQLite, logger)
	case TypeMongo:
		return NewMongoStore(ctx, cfg.Mongo, logger)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

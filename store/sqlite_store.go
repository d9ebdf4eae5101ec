package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/looptalk/flowgraph/graph"
)

// workflowRecord is the workflows table row: the graph document as
// JSON plus an optimistic version counter.
type workflowRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Document  []byte `gorm:"not null"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName sets the table name for GORM.
func (workflowRecord) TableName() string { return "workflows" }

// SQLiteStore is a SQLite-backed implementation of Store using the
// pure-Go driver, for single-node deployments that need durability
// without an external service.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at cfg.Path and
// ensures the workflows table exists.
func NewSQLiteStore(cfg SQLiteConfig, logger *zap.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, ErrInvalidInput
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&workflowRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate workflows table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With(zap.String("component", "sqlite_store")),
	}, nil
}

// Fetch retrieves a workflow graph by id.
func (s *SQLiteStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	var rec workflowRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", workflowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var g graph.Graph
	if err := json.Unmarshal(rec.Document, &g); err != nil {
		return nil, fmt.Errorf("corrupt workflow document %s: %w", workflowID, err)
	}
	return &g, nil
}

// Save replaces the stored graph and echoes back the persisted form.
func (s *SQLiteStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	if workflowID == "" || g == nil {
		return nil, ErrInvalidInput
	}

	persisted := normalize(g)
	data, err := json.Marshal(persisted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing workflowRecord
		switch err := tx.First(&existing, "id = ?", workflowID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&workflowRecord{ID: workflowID, Document: data, Version: 1}).Error
		case err != nil:
			return err
		default:
			return tx.Model(&workflowRecord{}).
				Where("id = ?", workflowID).
				Updates(map[string]any{
					"document": data,
					"version":  existing.Version + 1,
				}).Error
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return persisted, nil
}

// Ping checks if the store is healthy.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/looptalk/flowgraph/graph"
)

// Common errors. Callers match these with errors.Is; backend-specific
// causes are wrapped underneath.
var (
	ErrNotFound     = errors.New("workflow not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransient    = errors.New("transient storage failure")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// Type represents the storage backend type.
type Type string

const (
	TypeMemory Type = "memory"
	TypeFile   Type = "file"
	TypeRedis  Type = "redis"
	TypeSQLite Type = "sqlite"
	TypeMongo  Type = "mongo"
)

// Store persists workflow graphs keyed by workflow id. Save replaces
// the stored graph wholesale and echoes back the persisted form, with
// client-side ids normalized to server-assigned ones; callers must
// adopt the echoed graph rather than reuse the submitted one.
type Store interface {
	// Fetch retrieves a workflow graph by id
	Fetch(ctx context.Context, workflowID string) (*graph.Graph, error)

	// Save replaces the stored graph and returns the persisted form
	Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error)

	// Ping checks if the store is healthy
	Ping(ctx context.Context) error

	// Close closes the store and releases resources
	Close() error
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	// Addr is the Redis server address
	Addr string `json:"addr" yaml:"addr"`

	// Password is the Redis password (optional)
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number
	DB int `json:"db" yaml:"db"`

	// PoolSize is the connection pool size
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// KeyPrefix is the prefix for all Redis keys
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path
	Path string `json:"path" yaml:"path"`
}

// MongoConfig contains MongoDB-specific configuration.
type MongoConfig struct {
	// URI is the MongoDB connection string
	URI string `json:"uri" yaml:"uri"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Collection is the workflow collection name
	Collection string `json:"collection" yaml:"collection"`
}

// Config is the configuration for all store implementations.
type Config struct {
	// Type is the storage backend type
	Type Type `json:"type" yaml:"type"`

	// BaseDir is the base directory for file-based storage
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// Redis configuration (only used when Type is "redis")
	Redis RedisConfig `json:"redis" yaml:"redis"`

	// SQLite configuration (only used when Type is "sqlite")
	SQLite SQLiteConfig `json:"sqlite" yaml:"sqlite"`

	// Mongo configuration (only used when Type is "mongo")
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Type:    TypeMemory,
		BaseDir: "./data/workflows",
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "flowgraph:",
		},
		SQLite: SQLiteConfig{
			Path: "./data/flowgraph.db",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "flowgraph",
			Collection: "workflows",
		},
	}
}

// normalize returns the persisted form of a graph: every node or edge
// whose id is not a server-assigned UUID gets a fresh one, with edge
// endpoints remapped to the new node ids. Editors seed template graphs
// with placeholder ids; persistence replaces them on first save.
func normalize(g *graph.Graph) *graph.Graph {
	out := g.Clone()

	remap := make(map[string]string)
	for i := range out.Nodes {
		id := out.Nodes[i].ID
		if _, err := uuid.Parse(id); err != nil {
			assigned := uuid.New().String()
			if id != "" {
				remap[id] = assigned
			}
			out.Nodes[i].ID = assigned
		}
	}
	for i := range out.Edges {
		if mapped, ok := remap[out.Edges[i].Source]; ok {
			out.Edges[i].Source = mapped
		}
		if mapped, ok := remap[out.Edges[i].Target]; ok {
			out.Edges[i].Target = mapped
		}
		if _, err := uuid.Parse(out.Edges[i].ID); err != nil {
			out.Edges[i].ID = uuid.New().String()
		}
	}
	return out
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/looptalk/flowgraph/graph"
)

// FileStore persists one JSON document per workflow under a base
// directory. Suitable for single-node deployments.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
	closed  bool
}

// NewFileStore creates a file-backed workflow store rooted at baseDir,
// creating the directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidInput
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(workflowID string) (string, error) {
	// Workflow ids become file names; reject anything that could
	// escape the base directory.
	if workflowID == "" || strings.ContainsAny(workflowID, `/\`) || strings.Contains(workflowID, "..") {
		return "", ErrInvalidInput
	}
	return filepath.Join(s.baseDir, workflowID+".json"), nil
}

// Fetch retrieves a workflow graph by id.
func (s *FileStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	path, err := s.path(workflowID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
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
// The document is written to a temp file and renamed, so a crash mid-
// write never leaves a truncated workflow behind.
func (s *FileStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	path, err := s.path(workflowID)
	if err != nil {
		return nil, err
	}

	persisted := normalize(g)
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return persisted.Clone(), nil
}

// Ping checks if the store is healthy.
func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := os.Stat(s.baseDir); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

// Close closes the store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

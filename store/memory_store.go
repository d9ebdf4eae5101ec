package store

import (
	"context"
	"sync"

	"github.com/looptalk/flowgraph/graph"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	workflows map[string]*graph.Graph
	mu        sync.RWMutex
	closed    bool
}

// NewMemoryStore creates a new in-memory workflow store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]*graph.Graph),
	}
}

// Fetch retrieves a workflow graph by id.
func (s *MemoryStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	g, ok := s.workflows[workflowID]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

// Save replaces the stored graph and echoes back the persisted form.
func (s *MemoryStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	if workflowID == "" || g == nil {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	persisted := normalize(g)
	s.workflows[workflowID] = persisted
	return persisted.Clone(), nil
}

// Ping checks if the store is healthy.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

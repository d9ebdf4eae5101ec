package editor

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager hands out one Session per workflow id, so every caller
// editing the same workflow goes through the same single-flight save
// path. One UI session owns one graph at a time; the manager only
// guarantees that the server side never holds two sessions for one id.
type Manager struct {
	persist Persistence
	opts    []SessionOption
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the given persistence
// collaborator. The options are applied to every session it opens.
func NewManager(p Persistence, logger *zap.Logger, opts ...SessionOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		persist:  p,
		opts:     append([]SessionOption{WithLogger(logger)}, opts...),
		logger:   logger.With(zap.String("component", "editor_manager")),
		sessions: make(map[string]*Session),
	}
}

// Get returns the open session for the workflow, loading it from the
// store on first access.
func (m *Manager) Get(ctx context.Context, workflowID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[workflowID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Fetch outside the lock; slow stores must not serialize unrelated
	// workflows.
	s, err := Open(ctx, m.persist, workflowID, m.opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[workflowID]; ok {
		return existing, nil
	}
	m.sessions[workflowID] = s
	m.logger.Debug("session opened", zap.String("workflow_id", workflowID))
	return s, nil
}

// Create starts a session for a new, never-persisted workflow from the
// default template. An already-open session for the id is returned
// unchanged.
func (m *Manager) Create(workflowID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[workflowID]; ok {
		return s
	}
	s := New(workflowID, m.persist, m.opts...)
	m.sessions[workflowID] = s
	m.logger.Debug("session created", zap.String("workflow_id", workflowID))
	return s
}

// Close drops the session for a workflow. Unsaved edits are abandoned;
// confirming that with the user is the UI's responsibility.
func (m *Manager) Close(workflowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, workflowID)
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

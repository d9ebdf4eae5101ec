package editor

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/internal/telemetry"
	"github.com/looptalk/flowgraph/types"
)

// State is the save-orchestration state of a session.
type State string

const (
	// StateClean means the working graph matches the last persisted one
	StateClean State = "clean"
	// StateDirty means the working graph has unsaved edits
	StateDirty State = "dirty"
	// StateSaving means a save is in flight
	StateSaving State = "saving"
)

// Persistence is the external persistence collaborator consumed by a
// session. Fetch fails with the store's not-found, unauthorized, or
// transient errors; Save echoes back the persisted form, possibly with
// server-assigned ids normalized.
type Persistence interface {
	Fetch(ctx context.Context, workflowID string) (*graph.Graph, error)
	Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error)
}

// Snapshot is the read surface pushed to the rendering collaborator:
// the working graph, its violations, and the dirty/save state.
type Snapshot struct {
	WorkflowID string            `json:"workflow_id"`
	Graph      *graph.Graph      `json:"graph"`
	Violations []graph.Violation `json:"violations"`
	Dirty      bool              `json:"dirty"`
	State      State             `json:"state"`
	Runnable   bool              `json:"runnable"`
}

// Session owns the boundary between the last persisted graph and the
// in-memory edited one for a single open workflow. It serializes
// saves: at most one persistence call is in flight per session, a save
// snapshot is immune to edits made while the save runs, and edits made
// during a save leave the session dirty once the save resolves.
type Session struct {
	workflowID string
	persist    Persistence
	validator  *graph.Validator
	logger     *zap.Logger

	mu                 sync.Mutex
	model              *graph.Model
	lastPersisted      *graph.Graph
	state              State
	dirtiedWhileSaving bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithValidator sets a custom validator (e.g. with a prompt token budget).
func WithValidator(v *graph.Validator) SessionOption {
	return func(s *Session) { s.validator = v }
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func newSession(workflowID string, p Persistence, working, persisted *graph.Graph, state State, opts ...SessionOption) *Session {
	s := &Session{
		workflowID:    workflowID,
		persist:       p,
		validator:     graph.NewValidator(),
		logger:        zap.NewNop(),
		lastPersisted: persisted,
		state:         state,
		subs:          make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "editor_session"), zap.String("workflow_id", workflowID))
	s.model = graph.NewModel(working, graph.WithChangeHook(s.markDirty))
	return s
}

// Open loads a workflow from the persistence collaborator and starts a
// clean session over it.
func Open(ctx context.Context, p Persistence, workflowID string, opts ...SessionOption) (*Session, error) {
	ctx, span := telemetry.Tracer("editor").Start(ctx, "workflow.fetch",
		trace.WithAttributes(attribute.String("workflow.id", workflowID)))
	defer span.End()

	g, err := p.Fetch(ctx, workflowID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("workflow.nodes", len(g.Nodes)))
	return newSession(workflowID, p, g, g.Clone(), StateClean, opts...), nil
}

// New starts a session over the default "new workflow" template. The
// session begins dirty: the template has never been persisted, so the
// first save writes it.
func New(workflowID string, p Persistence, opts ...SessionOption) *Session {
	return newSession(workflowID, p, graph.DefaultTemplate(), nil, StateDirty, opts...)
}

// WorkflowID returns the id of the open workflow.
func (s *Session) WorkflowID() string {
	return s.workflowID
}

// Model returns the mutation API of the working graph. The canvas
// mutates the graph only through it.
func (s *Session) Model() *graph.Model {
	return s.model
}

// Working returns a snapshot copy of the working graph.
func (s *Session) Working() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Graph().Clone()
}

// LastPersisted returns a copy of the last persisted graph, or nil for
// a never-saved session.
func (s *Session) LastPersisted() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPersisted == nil {
		return nil
	}
	return s.lastPersisted.Clone()
}

// State returns the current orchestration state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsDirty reports whether the working graph has edits not yet
// persisted. A session stays dirty while its save is in flight.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateClean
}

// Violations validates the working graph.
func (s *Session) Violations() []graph.Violation {
	s.mu.Lock()
	g := s.model.Graph().Clone()
	s.mu.Unlock()
	return s.validator.Validate(g)
}

// IsRunnable reports whether the call/run action is allowed: no unsaved
// edits and no error-severity violations.
func (s *Session) IsRunnable() bool {
	return graph.IsRunnable(s.Violations(), s.IsDirty())
}

// Replace swaps in a whole new working graph, as when the canvas
// client submits its full document. It marks the session dirty.
func (s *Session) Replace(g *graph.Graph) {
	s.mu.Lock()
	s.model.Reset(g.Clone())
	s.mu.Unlock()
	s.markDirty()
}

// Save persists the working graph through the persistence collaborator.
//
// The graph is snapshotted before the call, so concurrent edits never
// leak into an in-flight save; they re-dirty the session after the
// save resolves. A save requested while another is in flight is
// rejected with a SAVE_IN_FLIGHT error rather than queued, so two
// persistence calls for the same workflow can never overlap. On
// success the session adopts the server-echoed graph; on failure the
// working graph is left untouched and the session stays dirty.
func (s *Session) Save(ctx context.Context) (*graph.Graph, error) {
	s.mu.Lock()
	switch s.state {
	case StateSaving:
		s.mu.Unlock()
		return nil, types.NewError(types.ErrSaveInFlight, "a save is already in flight").
			WithWorkflowID(s.workflowID)
	case StateClean:
		persisted := s.lastPersisted.Clone()
		s.mu.Unlock()
		return persisted, nil
	}
	snapshot := s.model.Graph().Clone()
	s.state = StateSaving
	s.dirtiedWhileSaving = false
	s.mu.Unlock()
	s.publish()

	saveCtx, span := telemetry.Tracer("editor").Start(ctx, "workflow.save",
		trace.WithAttributes(
			attribute.String("workflow.id", s.workflowID),
			attribute.Int("workflow.nodes", len(snapshot.Nodes)),
			attribute.Int("workflow.edges", len(snapshot.Edges)),
		))
	echoed, err := s.persist.Save(saveCtx, s.workflowID, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
	}
	span.End()

	s.mu.Lock()
	if err != nil {
		s.state = StateDirty
		s.mu.Unlock()
		s.publish()
		s.logger.Warn("save failed", zap.Error(err))
		return nil, types.NewError(types.ErrSaveFailed, "failed to persist workflow").
			WithCause(err).
			WithWorkflowID(s.workflowID).
			WithRetryable(true)
	}
	s.lastPersisted = echoed.Clone()
	if s.dirtiedWhileSaving {
		// Edits landed while the save was in flight; they belong to the
		// next save, not this one.
		s.state = StateDirty
	} else {
		s.state = StateClean
		s.model.Reset(echoed.Clone())
	}
	s.mu.Unlock()
	s.publish()
	s.logger.Debug("workflow saved",
		zap.Int("nodes", len(echoed.Nodes)),
		zap.Int("edges", len(echoed.Edges)),
	)
	return echoed.Clone(), nil
}

// markDirty is the model change hook.
func (s *Session) markDirty() {
	s.mu.Lock()
	if s.state == StateSaving {
		s.dirtiedWhileSaving = true
	} else {
		s.state = StateDirty
	}
	s.mu.Unlock()
	s.publish()
}

// Snapshot builds the current read-surface snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	g := s.model.Graph().Clone()
	dirty := s.state != StateClean
	state := s.state
	s.mu.Unlock()

	violations := s.validator.Validate(g)
	return Snapshot{
		WorkflowID: s.workflowID,
		Graph:      g,
		Violations: violations,
		Dirty:      dirty,
		State:      state,
		Runnable:   graph.IsRunnable(violations, dirty),
	}
}

// Subscribe registers a listener for state snapshots. It returns the
// channel and a cancel function. Slow listeners miss intermediate
// snapshots instead of blocking the editor.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) publish() {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	snap := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.subMu.Unlock()
}

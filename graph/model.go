package graph

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Model wraps a Graph with the canonical mutation API. All mutations
// are synchronous and total: when a precondition fails (unknown id,
// self-loop, duplicate connection) the mutation is a no-op instead of
// an error. Every effective mutation invokes the change hook, which
// the editor session uses to track dirty state.
type Model struct {
	g        *Graph
	onChange func()
	logger   *zap.Logger
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithChangeHook registers a callback invoked after every effective mutation.
func WithChangeHook(fn func()) ModelOption {
	return func(m *Model) { m.onChange = fn }
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) ModelOption {
	return func(m *Model) { m.logger = logger.With(zap.String("component", "graph_model")) }
}

// NewModel creates a model over the given graph. A nil graph starts
// from an empty one.
func NewModel(g *Graph, opts ...ModelOption) *Model {
	if g == nil {
		g = NewGraph()
	}
	m := &Model{g: g, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Graph returns the live working graph. Callers that need an immutable
// snapshot must Clone it.
func (m *Model) Graph() *Graph {
	return m.g
}

// Reset replaces the working graph without firing the change hook.
// The editor session uses it to adopt the server-echoed graph after a save.
func (m *Model) Reset(g *Graph) {
	if g == nil {
		g = NewGraph()
	}
	m.g = g
}

func (m *Model) touch() {
	if m.onChange != nil {
		m.onChange()
	}
}

// AddNode creates a node of the given kind at the given position, with
// its config seeded from the registry defaults. It returns the new node,
// or nil when the kind is unknown.
func (m *Model) AddNode(kind NodeKind, pos Position) *Node {
	spec, ok := Spec(kind)
	if !ok {
		m.logger.Debug("add node ignored: unknown kind", zap.String("kind", string(kind)))
		return nil
	}
	node := Node{
		ID:       uuid.New().String(),
		Kind:     kind,
		Position: pos,
		Config:   spec.Defaults(),
	}
	m.g.Nodes = append(m.g.Nodes, node)
	m.touch()
	return &m.g.Nodes[len(m.g.Nodes)-1]
}

// UpdateNodeConfig applies a patch function to the config of the given
// node. It reports whether the node existed.
func (m *Model) UpdateNodeConfig(id string, patch func(*NodeConfig)) bool {
	node, ok := m.g.NodeByID(id)
	if !ok || patch == nil {
		return false
	}
	patch(&node.Config)
	m.touch()
	return true
}

// DeleteNode removes a node and every edge referencing it, so no
// dangling edges survive a delete. It reports whether the node existed.
func (m *Model) DeleteNode(id string) bool {
	idx := -1
	for i := range m.g.Nodes {
		if m.g.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.g.Nodes = append(m.g.Nodes[:idx], m.g.Nodes[idx+1:]...)

	kept := m.g.Edges[:0]
	for _, e := range m.g.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	m.g.Edges = kept
	m.touch()
	return true
}

// Connect creates an edge from source to target with the given
// condition. Self-loops, unknown endpoints, and duplicate
// source→target pairs with an identical condition are rejected as
// no-ops. The edge label defaults to the condition text.
func (m *Model) Connect(sourceID, targetID, condition string) *Edge {
	if sourceID == targetID {
		return nil
	}
	if _, ok := m.g.NodeByID(sourceID); !ok {
		return nil
	}
	if _, ok := m.g.NodeByID(targetID); !ok {
		return nil
	}
	for _, e := range m.g.Edges {
		if e.Source == sourceID && e.Target == targetID && e.Condition == condition {
			return nil
		}
	}
	edge := Edge{
		ID:        uuid.New().String(),
		Source:    sourceID,
		Target:    targetID,
		Condition: condition,
		Label:     condition,
	}
	m.g.Edges = append(m.g.Edges, edge)
	m.touch()
	return &m.g.Edges[len(m.g.Edges)-1]
}

// Disconnect removes an edge by id. It reports whether the edge existed.
func (m *Model) Disconnect(edgeID string) bool {
	for i := range m.g.Edges {
		if m.g.Edges[i].ID == edgeID {
			m.g.Edges = append(m.g.Edges[:i], m.g.Edges[i+1:]...)
			m.touch()
			return true
		}
	}
	return false
}

// MoveNode updates a node position. It reports whether the node existed.
func (m *Model) MoveNode(id string, pos Position) bool {
	node, ok := m.g.NodeByID(id)
	if !ok {
		return false
	}
	if node.Position == pos {
		return true
	}
	node.Position = pos
	m.touch()
	return true
}

// SetViewport updates the canvas viewport.
func (m *Model) SetViewport(v Viewport) {
	if m.g.Viewport == v {
		return
	}
	m.g.Viewport = v
	m.touch()
}

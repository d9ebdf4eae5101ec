// Package flowgraph provides a top-level convenience entry point for
// opening workflow editing sessions with minimal boilerplate.
//
// Usage:
//
//	import "github.com/looptalk/flowgraph"
//
//	st := flowgraph.NewMemoryStore()
//	s := flowgraph.NewSession("wf-1", st)
//	s.Model().AddNode(flowgraph.KindAgent, flowgraph.Position{X: 0, Y: 160})
//	persisted, err := s.Save(ctx)
//
// This is a thin wrapper around the editor, graph, and store packages;
// use it when you prefer the shorter import path.
package flowgraph

import (
	"context"

	"github.com/looptalk/flowgraph/editor"
	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/store"
)

// Core graph types, re-exported for the short import path.
type (
	Graph     = graph.Graph
	Node      = graph.Node
	Edge      = graph.Edge
	NodeKind  = graph.NodeKind
	Position  = graph.Position
	Violation = graph.Violation
	Snapshot  = editor.Snapshot
	Session   = editor.Session
	Store     = store.Store
)

// Node kinds.
const (
	KindStart   = graph.KindStart
	KindAgent   = graph.KindAgent
	KindEnd     = graph.KindEnd
	KindGlobal  = graph.KindGlobal
	KindTrigger = graph.KindTrigger
	KindWebhook = graph.KindWebhook
)

// DefaultTemplate returns the graph a brand-new workflow starts from.
var DefaultTemplate = graph.DefaultTemplate

// Validate computes the full violation list for a graph.
func Validate(g *Graph) []Violation {
	return graph.NewValidator().Validate(g)
}

// Layout computes a layered auto-layout with the standard spacing.
var Layout = graph.Layout

// NewMemoryStore creates an in-memory workflow store, useful for tests
// and single-process setups.
func NewMemoryStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// NewSession starts an editing session for a new, never-persisted
// workflow from the default template.
func NewSession(workflowID string, s Store, opts ...editor.SessionOption) *Session {
	return editor.New(workflowID, s, opts...)
}

// OpenSession loads a workflow from the store and starts a clean
// session over it.
func OpenSession(ctx context.Context, s Store, workflowID string, opts ...editor.SessionOption) (*Session, error) {
	return editor.Open(ctx, s, workflowID, opts...)
}

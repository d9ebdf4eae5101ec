// Package graph implements the workflow graph consistency engine for
// voice-agent call flows: the typed node/edge/viewport model and its
// mutation API, the node kind registry, structural and field-level
// validation, and the deterministic layered layout.
//
// The graph is the single source of truth for the editor. Mutations
// are synchronous and total: malformed requests are no-ops, never
// errors. Validation is a pure function over the graph; it reports
// violations rather than raising, and an invalid graph remains
// editable and saveable. Only the run action is gated on validity.
package graph

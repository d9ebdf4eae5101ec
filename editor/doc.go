// Package editor owns the dirty/save orchestration for open workflow
// graphs: the boundary between the last persisted snapshot and the
// in-memory edited graph, single-flight save serialization, and the
// state stream consumed by the rendering canvas.
package editor

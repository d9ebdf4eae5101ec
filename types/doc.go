// Package types defines the shared error taxonomy used across the
// flowgraph engine: structured errors with machine-readable codes for
// persistence failures (not found, unauthorized, transient IO), editor
// failures (save failed, save in flight), and service-level failures.
package types

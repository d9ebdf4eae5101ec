// Package store provides the workflow persistence collaborator: a
// fetch/replace contract over complete graph documents keyed by
// workflow id.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - File: one JSON document per workflow on local disk
//   - SQLite: embedded single-file database
//   - Redis: for distributed deployments
//   - Mongo: for deployments with an existing document database
//
// Save normalizes client-side placeholder ids to server-assigned
// UUIDs and echoes the persisted form back; the editor session adopts
// the echoed graph rather than reusing the submitted one.
package store

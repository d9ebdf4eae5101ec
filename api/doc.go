// Package api defines the request/response DTOs for the FlowGraph HTTP API.
//
// # API Overview
//
// FlowGraph provides a RESTful API for:
//   - Workflow session lifecycle (create, open, close)
//   - Whole-document graph replacement from the canvas client
//   - Graph validation and auto-layout
//   - Save orchestration with single-flight semantics
//   - Live session snapshots over WebSocket
//   - Health monitoring and metrics
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// All workflow endpoints live under /v1/workflows.
package api

// Package api implements the HTTP inspection API and WebSocket event stream
// for Gray Logic IO.
//
// This package provides:
//   - Read endpoints for devices, their feedbacks and bridge join tables
//   - Join injection for driving a bridge from the far side during commissioning
//   - CRUD for join map overrides (applied at the next link)
//   - WebSocket hub relaying join pushes and endpoint online changes
//   - Optional JWT authentication with ticket-based WebSocket auth
//
// # Architecture
//
// The server sits beside the bridge linker. It never writes to hardware
// directly: values reach devices only through a bridge's inbound joins,
// exactly as a control surface would send them.
//
// # Security
//
// With security.jwt.secret set, every route except /health requires an
// HS256 Bearer token. WebSocket connections use single-use tickets to
// prevent token leakage in URLs. With no secret the API is open, which
// suits a bench or a loopback-only listener.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

// Package api implements the HTTP REST API and WebSocket server for NeuroAIR Core.
//
// This package provides:
//   - REST endpoints for device state, direct operation and voice dispatch
//   - Platform endpoints for Yandex Alice, Google Home and Home Assistant
//   - WebSocket hub for real-time state and dispatch broadcasts
//   - Link-token authentication with role permissions
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
//	platforms ──POST /platforms/{name}──▶ platform.Adapter ─┐
//	dashboards ─POST /dispatch──────────────────────────────┼─▶ dispatch.Dispatcher ─▶ device.Controller
//	            POST /device/...────────────────────────────┘                              │
//	WebSocket ◀── Hub ◀── dispatch listener / state observer ◀──────────────────────────────┘
//
// # WebSocket protocol
//
// Clients send {"type":"subscribe","id":"1","channels":["device.state_changed"]}
// and receive {"type":"event","channel":...,"payload":...} for each change.
// Subscribing to device.state_changed, or sending get_state, yields a
// "state" message with the current snapshot.
//
// # Security
//
// When security.auth_enabled is set every route except /health requires
// a bearer link token issued by the neuroair-token command. Platform
// tokens may only call their own platform endpoint. WebSocket clients
// pass the token in the "token" query parameter.
package api

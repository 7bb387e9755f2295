// Package server provides a unified HTTP server for streamkit applications
// using Gin with HTTP/2 and h2c support.
//
// The server follows the component pattern with lifecycle management,
// health endpoints, and configurable middleware. It hosts the SSE stream
// endpoints alongside the standard system routes.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - Logging: Request/response logging with duration tracking
//   - CORS: Cross-origin resource sharing configuration
//   - RequestID: Request ID generation and propagation
//   - RateLimit: Sliding-window rate limiting
//   - BodySize: Request body size limits
//   - Auth: Bearer JWT authentication middleware
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation
//   - /info: Application information
//   - /metrics: Runtime metrics
//   - /alive: Kubernetes liveness check
//   - /ready: Kubernetes readiness check
//   - /version: Build version information
package server

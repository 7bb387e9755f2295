// Package component defines the core interfaces for lifecycle-managed
// services in streamkit.
//
// Components represent services that require startup, shutdown, and
// health monitoring: the HTTP server, stream relays, and the SSE hub.
// They are registered with a Registry which starts them in order and
// stops them in reverse order on shutdown.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Name/Start/Stop/Health)
//   - Describable: Startup summary descriptions
//   - RouteProvider: HTTP route self-reporting
package component

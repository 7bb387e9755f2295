// Package sse provides Server-Sent Events (SSE) infrastructure for
// publishing streams to browser clients.
//
// It includes client connection management, pattern-based broadcasting,
// and a relay that subscribes a stream producer and forwards its
// notifications as SSE events.
//
// # Architecture
//
//   - Hub: Central event router managing client connections
//   - Relay: Subscribes a stream.Producer and broadcasts its notifications
//   - Handler: gin handler for the SSE endpoint
//
// # Usage
//
//	hub := sse.NewHub()
//	go hub.Run()
//	relay := sse.NewRelay("quotes", producer, hub, metrics)
//	relay.Start(ctx)
//	router.GET("/streams/quotes", sse.Handler(hub, "quotes", metrics))
package sse

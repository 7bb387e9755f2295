// Package sse provides Server-Sent Events (SSE) support for real-time streaming.
package sse

// SSE event type constants.
const (
	// EventTypeConnected is sent when a client successfully connects.
	EventTypeConnected = "connected"

	// EventTypeKeepAlive is used for keep-alive comments.
	EventTypeKeepAlive = "keepalive"

	// EventTypeMessage carries a stream value.
	EventTypeMessage = "message"

	// EventTypeError is sent when the relayed stream fails.
	EventTypeError = "error"

	// EventTypeComplete is sent when the relayed stream completes normally.
	EventTypeComplete = "complete"
)

// Package sse provides Server-Sent Events (SSE) support for real-time streaming.
package sse

// Broadcaster is the delivery side of a relay. The Hub is the production
// implementation; relay tests substitute a recording one.
type Broadcaster interface {
	// BroadcastToPattern sends data to all clients whose ID matches the
	// glob pattern. Relays address their audience as "<stream>:*" since
	// the handler assigns client IDs of the form "<stream>:<uuid>".
	BroadcastToPattern(pattern string, data []byte)
}

package server

import (
	"fmt"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/sse"
	"github.com/kbukum/streamkit/stream"
)

// StreamMount binds one named byte stream to an HTTP path.
type StreamMount struct {
	// Name labels the stream. Relay broadcasts target "<name>:*" and SSE
	// client ids carry the name, so it must be unique per server.
	Name string
	// Path is the GET route serving the stream over SSE. Empty means
	// "/streams/<name>".
	Path string
	// Source is the producer whose notifications are relayed to clients.
	Source stream.Producer[[]byte]
}

// MountStreams wires the SSE plumbing for the given mounts onto the server:
// one hub component shared by all mounts, one relay component per mount, and
// a GET endpoint per mount that streams events to connected clients.
//
// Components are registered on reg in start order, hub before relays, so a
// relay never broadcasts into a stopped hub; the caller registers the server
// component itself. Metrics may be nil. The shared hub is returned for direct
// broadcasting or client inspection.
func (s *Server) MountStreams(reg *component.Registry, metrics *observability.StreamMetrics, mounts ...StreamMount) (*sse.Hub, error) {
	hubComp := sse.NewComponent("/streams")
	if err := reg.Register(hubComp); err != nil {
		return nil, fmt.Errorf("registering sse hub: %w", err)
	}
	hub := hubComp.Hub()
	s.hub = hub

	for _, m := range mounts {
		if m.Name == "" {
			return nil, fmt.Errorf("stream mount needs a name")
		}
		if m.Source == nil {
			return nil, fmt.Errorf("stream %q has no source", m.Name)
		}
		path := m.Path
		if path == "" {
			path = "/streams/" + m.Name
		}
		if s.streamPaths[path] != "" {
			return nil, fmt.Errorf("path %s already serves stream %q", path, s.streamPaths[path])
		}

		s.engine.GET(path, sse.Handler(hub, m.Name, metrics))
		if err := reg.Register(sse.NewRelay(m.Name, m.Source, hub, metrics)); err != nil {
			return nil, fmt.Errorf("registering relay for stream %q: %w", m.Name, err)
		}
		s.streamPaths[path] = m.Name

		s.log.Info("Stream mounted", logger.Fields(
			logger.FieldStream, m.Name,
			"path", path,
		))
	}
	return hub, nil
}

// ConnectedClients reports how many SSE clients are attached to the hub.
// Zero when no streams are mounted.
func (s *Server) ConnectedClients() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.GetClientCount()
}

// StreamPaths returns the mounted SSE routes, path to stream name.
func (s *Server) StreamPaths() map[string]string {
	out := make(map[string]string, len(s.streamPaths))
	for p, name := range s.streamPaths {
		out[p] = name
	}
	return out
}

package server

import (
	"fmt"
	"strings"
)

// Route classes for the startup summary: mounted streams first, then API
// routes, system endpoints last.
const (
	classStream = iota
	classAPI
	classSystem
)

// System route paths registered by streamkit (health, liveness, metrics).
var systemPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/metrics": true,
	"/alive":   true,
	"/ready":   true,
	"/version": true,
}

// routeClass classifies a registered path for summary ordering.
func (s *Server) routeClass(path string) int {
	switch {
	case s.streamPaths[path] != "":
		return classStream
	case systemPaths[path]:
		return classSystem
	default:
		return classAPI
	}
}

// formatHandlerName extracts a clean handler name from Gin's full handler path.
// Gin stores handlers like:
//
//	"github.com/yourorg/yourservice/internal/api/port.(*StreamPort).List-fm"
//
// We extract: "StreamPort.List"
func formatHandlerName(fullPath string) string {
	// Remove -fm suffix Gin adds to method values
	name := strings.TrimSuffix(fullPath, "-fm")

	// Get the last segment after /
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	// Clean up Go receiver notation: "(*StreamPort).List" → "StreamPort.List"
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Handle closure names like "Server.RegisterDefaultEndpoints.Health.func1"
	// Simplify to just the meaningful part
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		// Find the last meaningful name before funcN
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				name = strings.ToLower(parts[i])
				break
			}
		}
	}

	// Remove package prefix: "port.StreamPort.List" → "StreamPort.List"
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		// If first part looks like a package name (lowercase, no capital letters), skip it
		hasUpper := false
		for _, c := range parts[0] {
			if c >= 'A' && c <= 'Z' {
				hasUpper = true
				break
			}
		}
		if !hasUpper && len(parts[1]) > 0 {
			name = parts[1]
		}
	}

	return name
}

// methodOrder returns a sort key for HTTP methods (GET first, DELETE last).
func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}

// InfrastructureInfo returns a summary description for this server.
func (s *Server) InfrastructureInfo() (name, componentType, status, details string, port int) {
	detail := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if n := len(s.streamPaths); n > 0 {
		detail = fmt.Sprintf("%s streams=%d", detail, n)
	}
	return "HTTP Server", "server", "active", detail, s.config.Port
}

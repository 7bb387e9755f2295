package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/stream"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	return New(cfg, logger.NewDefault())
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ReadTimeout != 15 || cfg.WriteTimeout != 15 {
		t.Errorf("expected 15s read/write timeouts, got %d/%d", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.MaxBodySize != "10MB" {
		t.Errorf("expected default body size 10MB, got %s", cfg.MaxBodySize)
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		t.Error("expected default CORS origins")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Port: 8080}, false},
		{"port too large", Config{Port: 70000}, true},
		{"negative port", Config{Port: -1}, true},
		{"negative read timeout", Config{Port: 8080, ReadTimeout: -1}, true},
		{"negative write timeout", Config{Port: 8080, WriteTimeout: -1}, true},
		{"negative rate limit", Config{Port: 8080, RateLimitPerMinute: -1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestServer_DefaultEndpoints(t *testing.T) {
	s := testServer(t)
	checker := func(ctx context.Context) []component.Health {
		return []component.Health{
			{Name: "hub", Status: component.StatusHealthy},
		}
	}
	s.ApplyDefaults("race-relay", checker)

	t.Run("health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body["status"] != "up" {
			t.Errorf("expected status up, got %v", body["status"])
		}
		if body["service"] != "race-relay" {
			t.Errorf("expected service race-relay, got %v", body["service"])
		}
	})

	t.Run("health unhealthy component", func(t *testing.T) {
		s2 := testServer(t)
		s2.ApplyDefaults("race-relay", func(ctx context.Context) []component.Health {
			return []component.Health{
				{Name: "relay", Status: component.StatusUnhealthy, Message: "source failed"},
			}
		})

		rr := httptest.NewRecorder()
		s2.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("info", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", "/info", http.NoBody))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding metrics body: %v", err)
		}
		streamStats, ok := body["stream"].(map[string]any)
		if !ok {
			t.Fatal("expected stream section in metrics body")
		}
		if got := streamStats["connected_clients"]; got != float64(0) {
			t.Errorf("connected_clients = %v, want 0 with no streams mounted", got)
		}
	})

	t.Run("liveness and readiness", func(t *testing.T) {
		for _, path := range []string{"/alive", "/ready", "/version"} {
			rr := httptest.NewRecorder()
			s.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))
			if rr.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", path, rr.Code)
			}
		}
	})

	t.Run("not ready while a component is unhealthy", func(t *testing.T) {
		s2 := testServer(t)
		s2.ApplyDefaults("race-relay", func(ctx context.Context) []component.Health {
			return []component.Health{
				{Name: "relay", Status: component.StatusUnhealthy, Message: "source failed"},
			}
		})

		rr := httptest.NewRecorder()
		s2.GinEngine().ServeHTTP(rr, httptest.NewRequest("GET", "/ready", http.NoBody))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding readiness body: %v", err)
		}
		if body["status"] != "not_ready" {
			t.Errorf("status = %v, want not_ready", body["status"])
		}
	})
}

func TestServer_StartStop(t *testing.T) {
	s := testServer(t)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestServerComponent(t *testing.T) {
	s := testServer(t)
	sc := NewComponent(s)

	if sc.Name() != "http-server" {
		t.Errorf("expected name 'http-server', got %q", sc.Name())
	}

	health := sc.Health(context.Background())
	if health.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", health.Status)
	}

	desc := sc.Describe()
	if desc.Type != "server" {
		t.Errorf("expected type 'server', got %q", desc.Type)
	}
}

func TestServerComponent_Routes(t *testing.T) {
	s := testServer(t)
	s.ApplyDefaults("svc", nil)
	s.GinEngine().GET("/streams/quotes", func(c *gin.Context) {})

	sc := NewComponent(s)
	routes := sc.Routes()
	if len(routes) == 0 {
		t.Fatal("expected routes to be reported")
	}

	// API routes sort before system routes
	if routes[0].Path != "/streams/quotes" {
		t.Errorf("expected API route first, got %s", routes[0].Path)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/org/svc/internal/port.(*StreamPort).List-fm", "StreamPort.List"},
		{"github.com/org/svc/handlers.Ping", "Ping"},
	}
	for _, tc := range tests {
		if got := formatHandlerName(tc.in); got != tc.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMethodOrder(t *testing.T) {
	if methodOrder("GET") >= methodOrder("POST") {
		t.Error("expected GET to sort before POST")
	}
	if methodOrder("DELETE") >= methodOrder("TRACE") {
		t.Error("expected DELETE to sort before unknown methods")
	}
}

// readSSEFrame reads one event frame (up to the blank separator line) from r.
func readSSEFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event frame: %v", err)
		}
		if line == "\n" || line == "\r\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}

func TestServer_MountStreams(t *testing.T) {
	s := testServer(t)
	reg := component.NewRegistry()

	quotes := make(chan []byte, 4)
	hub, err := s.MountStreams(reg, nil, StreamMount{Name: "quotes", Source: stream.FromChannel(quotes)})
	if err != nil {
		t.Fatalf("MountStreams() error = %v", err)
	}
	if got := s.StreamPaths()["/streams/quotes"]; got != "quotes" {
		t.Fatalf("StreamPaths()[/streams/quotes] = %q, want %q", got, "quotes")
	}

	ctx := context.Background()
	if err := reg.StartAll(ctx); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	defer reg.StopAll(ctx)

	ts := httptest.NewServer(s.GinEngine())
	defer ts.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ts.URL+"/streams/quotes", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /streams/quotes error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	reader := bufio.NewReader(resp.Body)
	connected := readSSEFrame(t, reader)
	if !strings.Contains(connected, `"stream":"quotes"`) {
		t.Errorf("connected frame = %q, want stream name in payload", connected)
	}

	// Registration is processed by the hub loop; wait for it before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	quotes <- []byte(`{"symbol":"ACME","price":42}`)
	frame := readSSEFrame(t, reader)
	if !strings.Contains(frame, "ACME") {
		t.Errorf("event frame = %q, want relayed payload", frame)
	}
}

func TestServer_MountStreamsRejectsDuplicatePath(t *testing.T) {
	s := testServer(t)
	reg := component.NewRegistry()

	src := stream.Never[[]byte]()
	_, err := s.MountStreams(reg, nil,
		StreamMount{Name: "quotes", Source: src},
		StreamMount{Name: "trades", Path: "/streams/quotes", Source: src},
	)
	if err == nil {
		t.Fatal("expected duplicate path error")
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/server/middleware"
)

func rateLimitRouter(cfg middleware.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	router := rateLimitRouter(middleware.RateLimitConfig{RequestsPerMinute: 5})

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/ping", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	router := rateLimitRouter(middleware.RateLimitConfig{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/ping", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/ping", http.NoBody))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "RATE_LIMITED") {
		t.Errorf("expected RATE_LIMITED error code, got %q", rr.Body.String())
	}
}

func TestRateLimit_KeysAreIsolated(t *testing.T) {
	router := rateLimitRouter(middleware.RateLimitConfig{
		RequestsPerMinute: 1,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client")
		},
	})

	for _, client := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", http.NoBody)
		req.Header.Set("X-Client", client)
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("client %s: expected 200, got %d", client, rr.Code)
		}
	}
}

func TestSubjectBasedKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("uses token subject when present", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/ping", http.NoBody)
		c.Set("sub", "client-42")
		if got := middleware.SubjectBasedKey(c); got != "client-42" {
			t.Errorf("expected client-42, got %q", got)
		}
	})

	t.Run("falls back to client IP", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/ping", http.NoBody)
		if got := middleware.SubjectBasedKey(c); got == "" {
			t.Error("expected a non-empty fallback key")
		}
	})
}

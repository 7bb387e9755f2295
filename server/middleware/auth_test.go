package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/server/middleware"
)

var testSecret = []byte("test-signing-secret")

func authRouter(cfg middleware.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(cfg))
	r.GET("/protected", func(c *gin.Context) {
		sub, _ := c.Get("sub")
		c.JSON(http.StatusOK, gin.H{"sub": sub})
	})
	r.GET("/public/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuth_MissingHeader(t *testing.T) {
	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/protected", http.NoBody))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_BadScheme(t *testing.T) {
	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	token, err := middleware.SignJWT(testSecret, map[string]interface{}{
		"sub": "client-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}

	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	token, err := middleware.SignJWT([]byte("other-secret"), map[string]interface{}{
		"sub": "client-1",
	})
	if err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}

	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", rr.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	token, err := middleware.SignJWT(testSecret, map[string]interface{}{
		"sub": "client-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}

	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestAuth_SkipPaths(t *testing.T) {
	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
		SkipPaths:      []string{"/public"},
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/public/ping", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for skipped path, got %d", rr.Code)
	}
}

func TestAuth_QueryToken(t *testing.T) {
	token, err := middleware.SignJWT(testSecret, map[string]interface{}{
		"sub": "client-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT failed: %v", err)
	}

	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	// EventSource clients pass the token in the query string.
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/protected?access_token="+token, http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for query token, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuth_ErrorBodyShape(t *testing.T) {
	r := authRouter(middleware.AuthConfig{
		TokenValidator: middleware.JWTValidator(testSecret),
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/protected", http.NoBody))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Code == "" {
		t.Error("expected structured error code in body")
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamkit/errors"
)

// AuthConfig configures the JWT authentication middleware.
type AuthConfig struct {
	// TokenValidator validates a token string and returns the claims.
	TokenValidator func(token string) (map[string]interface{}, error)
	// SkipPaths are URL path prefixes that bypass authentication. Health and
	// liveness routes typically belong here.
	SkipPaths []string
}

// Auth returns a Gin middleware that validates Bearer tokens using the
// configured TokenValidator. Validated claims are stored in the Gin context.
//
// EventSource clients cannot set request headers, so a token may also be
// supplied as the access_token query parameter on SSE routes. The header
// wins when both are present.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		token, appErr := extractToken(c)
		if appErr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, appErr.ToResponse())
			return
		}

		claims, err := cfg.TokenValidator(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apperrors.Unauthorized("invalid token").ToResponse())
			return
		}

		for key, value := range claims {
			c.Set(key, value)
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, *apperrors.AppError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if qt := c.Query("access_token"); qt != "" {
			return qt, nil
		}
		return "", apperrors.Unauthorized("credentials required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperrors.Unauthorized("authorization header must use the Bearer scheme")
	}
	return parts[1], nil
}

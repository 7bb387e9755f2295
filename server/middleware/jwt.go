package middleware

import (
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/streamkit/errors"
)

// JWTValidator returns a TokenValidator for HMAC-signed JWTs, suitable for
// AuthConfig.TokenValidator. Tokens signed with any non-HMAC method are
// rejected to prevent algorithm confusion.
func JWTValidator(secret []byte) func(token string) (map[string]interface{}, error) {
	return func(tokenString string) (map[string]interface{}, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			return nil, apperrors.InvalidToken().WithCause(err)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, apperrors.InvalidToken()
		}
		return map[string]interface{}(claims), nil
	}
}

// SignJWT creates an HMAC-signed token from the given claims. Intended for
// tests and development tooling.
func SignJWT(secret []byte, claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	return token.SignedString(secret)
}

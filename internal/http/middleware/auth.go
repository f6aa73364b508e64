package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"signdocs/internal/service"
)

// UserIDLocalKey is the key under which the authenticated user id is stored
// in Fiber's context locals.
const UserIDLocalKey = "user_id"

// Auth verifies the bearer token on the request and resolves the current
// user id into context locals. Tokens are HS256-signed with a shared
// secret; the user id lives in the "id" claim (subject as fallback).
// Failures surface as tagged auth errors for the boundary error handler.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return service.Auth("Not authorized, no token")
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return service.Auth("Invalid token")
		}

		userID := ""
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			userID, _ = claims["id"].(string)
			if userID == "" {
				userID, _ = claims["sub"].(string)
			}
		}
		if userID == "" {
			return service.Auth("Invalid token")
		}

		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Auth, or "".
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals(UserIDLocalKey).(string); ok {
		return v
	}
	return ""
}

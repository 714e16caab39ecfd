package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	APIKeyHeader        = "X-API-Key"
)

// RequireAPIKey protects routes that spend provider quota. The key is read from the
// X-API-Key header or a Bearer Authorization header. An empty key disables the check.
func RequireAPIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		provided := c.Get(APIKeyHeader)
		if provided == "" {
			authHeader := c.Get(AuthorizationHeader)
			if authHeader == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Code:    "MISSING_API_KEY",
					Message: "API key is missing",
					Status:  fiber.StatusUnauthorized,
				})
			}
			if !strings.HasPrefix(authHeader, BearerSchema) {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Code:    "INVALID_AUTH_SCHEME",
					Message: "Authorization scheme is not Bearer",
					Status:  fiber.StatusUnauthorized,
				})
			}
			provided = strings.TrimPrefix(authHeader, BearerSchema)
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_API_KEY",
				Message: "API key is invalid",
				Status:  fiber.StatusUnauthorized,
			})
		}
		return c.Next()
	}
}

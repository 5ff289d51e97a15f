package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"invoiceflow/internal/service"
)

// ClaimsLocalKey is the locals key holding the verified *service.Claims.
const ClaimsLocalKey = "auth_claims"

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	VerifyToken(token string) (*service.Claims, error)
}

// Auth requires "Authorization: Bearer <token>". A missing or malformed header is 401,
// a token that fails verification is 403.
func Auth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := v.VerifyToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "invalid or expired token")
		}
		c.Locals(ClaimsLocalKey, claims)
		return c.Next()
	}
}

// ClaimsFromCtx returns the claims stored by Auth, or nil.
func ClaimsFromCtx(c *fiber.Ctx) *service.Claims {
	claims, _ := c.Locals(ClaimsLocalKey).(*service.Claims)
	return claims
}

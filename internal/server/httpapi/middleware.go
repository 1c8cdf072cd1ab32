package httpapi

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/auth"
)

const localsClaimsKey = "claims"

// requireAuth parses the bearer access token and stores its claims for
// downstream handlers. Missing, malformed, and expired tokens all get a
// bare 401.
func (s *Server) requireAuth(c fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	claims, err := auth.ParseAccessToken(token, s.jwtSecret)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid access token"})
	}

	c.Locals(localsClaimsKey, claims)
	return c.Next()
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// callerID returns the authenticated account id. Only valid behind
// requireAuth.
func callerID(c fiber.Ctx) string {
	if claims, ok := c.Locals(localsClaimsKey).(*auth.Claims); ok {
		return claims.Subject
	}
	return ""
}

package middleware

import (
	"strings"

	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

const TokenCookie = "token"

// AuthMiddleware accepts a bearer token or the auth cookie and stores the claims under "user".
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			return response.Fail(c, fiber.StatusUnauthorized, "Authentication required")
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return response.Fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals("user", claims)
		c.SetUserContext(logger.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*jwt.Claims)
		if !ok || !claims.IsAdmin() {
			return response.Fail(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

// RequestContext carries the request id into the handler's context logger.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(logger.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

package middlewares

import (
	t_token "marketplace_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name
	QueryToken = "auth"

	// CookieToken token in cookie name
	CookieToken = "auth_token"

	// TokenUserID get user from token, set c.locals name
	TokenUserID = "UserID"
	// TokenRole get role from token, set c.locals name
	TokenRole = "role"
)

// JWTMiddleware resolves the authenticated user identity from the auth query
// parameter or cookie. Websocket clients cannot set headers, so the query
// parameter comes first.
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)

		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(TokenUserID, claims.UserID)
		c.Locals(TokenRole, claims.Role)

		return c.Next()
	}
}

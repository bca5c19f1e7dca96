package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/security"
	"github.com/pictotext/pictotext/internal/pkg/usercontext"
)

// BearerAuth validates an API token from the Authorization header and loads
// the user it belongs to into the request context. Requests that already
// carry a session pass through untouched, the token is an alternative for
// programmatic clients.
func BearerAuth(tokens *security.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
			return c.Next()
		}
		if tokens == nil {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}

		userID, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "invalid or expired token",
			})
		}

		user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "token user no longer exists",
			})
		}

		c.Locals("USER_CONTEXT", usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Username,
			IsLoggedIn: true,
		})
		c.Locals(usercontext.KeyFromProtected, true)
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyUsername, user.Username)
		return c.Next()
	}
}

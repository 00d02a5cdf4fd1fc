package middleware

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/model"
)

// guard builds a role check that must run after AuthMiddleware.
func guard(allowed func(*model.User) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		if !allowed(user) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": message,
			})
		}
		return c.Next()
	}
}

// RequireAdmin lets staff and superusers through.
func RequireAdmin() fiber.Handler {
	return guard(func(u *model.User) bool { return u.IsAdmin() }, "Administrator access required")
}

func RequireSuperuser() fiber.Handler {
	return guard(func(u *model.User) bool { return u.IsSuperuser }, "Superuser access required")
}

// RequireAgent lets agents through, and superusers who act on their behalf.
func RequireAgent() fiber.Handler {
	return guard(func(u *model.User) bool { return u.Agent != nil || u.IsSuperuser }, "You are not registered as an agent")
}

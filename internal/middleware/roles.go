package middleware

// roles.go: role-based access control. A club has two roles: admin (club
// staff) and member.

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
)

// RequireRole returns a middleware handler that allows only members whose role
// matches one of the provided roles, and answers 403 Forbidden otherwise.
//
//	api.Post("/matches/:id/settle", middleware.RequireRole(models.MemberRoleAdmin), handlers.SettleMatch(svc))
//
// RequireRole must run after Auth, which stores the role in c.Locals.
func RequireRole(roles ...models.MemberRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}
		if slices.Contains(roles, role) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}

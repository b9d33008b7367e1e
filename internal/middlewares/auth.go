package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	UserIDKey = "user_id"

	notAuthorized = "Not authorized to access this route"
)

type TokenVerifier interface {
	Verify(token string) (accountID string, err error)
}

// Protect requires an "Authorization: Bearer <token>" header and stores the
// account id under UserIDKey.
func Protect(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return unauthorized(c)
		}
		id, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(UserIDKey, id)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": notAuthorized})
}

// UserID returns the account id stored by Protect.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

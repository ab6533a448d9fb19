package middleware

import (
	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentActor(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentActor converts the session user into the actor passed to ledger services.
func CurrentActor(c *fiber.Ctx) (access.Actor, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return access.Actor{}, false
	}
	raw, _ := m["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return access.Actor{}, false
	}
	role, _ := m["role"].(string)
	return access.Actor{UserID: id, Role: role}, true
}

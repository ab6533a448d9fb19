package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Sessions are issued by the identity service; this API only reads them.
const (
	SessionCookieName  = "fundledger.sid"
	SessionRedisPrefix = "session:"
	sessionLookupLimit = 2 * time.Second
)

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Session loads the session stored under "session:<id>" and exposes its
// "user" entry in Locals. Cookie values of the form "s:<id>.<signature>" are
// accepted; only the id part is used.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userLocal, nil)
		sessionID := sessionIDFromCookie(c.Cookies(SessionCookieName))
		if sessionID == "" || rdb == nil {
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), sessionLookupLimit)
		b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
		cancel()
		if err != nil {
			if err != redis.Nil {
				log.Warn().Err(err).Msg("session lookup failed")
			}
			return c.Next()
		}
		var data map[string]interface{}
		if err := json.Unmarshal(b, &data); err != nil {
			log.Warn().Err(err).Msg("session payload is not JSON")
			return c.Next()
		}
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		}
		c.Locals("session_id", sessionID)
		return c.Next()
	}
}

func sessionIDFromCookie(v string) string {
	if strings.HasPrefix(v, "s:") {
		return strings.SplitN(v[2:], ".", 2)[0]
	}
	return v
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

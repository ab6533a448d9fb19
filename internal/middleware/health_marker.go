package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	healthsvc "fundledger-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthMarker records request stats in Redis (skip /health*, favicon).
// Responses with status >= 500 are also pushed onto the capped error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		ctx := context.Background()
		_, _ = rdb.Set(ctx, healthsvc.KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, healthsvc.KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, healthsvc.KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, healthsvc.KeyResTime, float64(ms)).Result()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		if status >= fiber.StatusInternalServerError {
			_, _ = rdb.Incr(ctx, healthsvc.KeyReqErrors).Result()
			entry := map[string]interface{}{
				"time":     time.Now(),
				"path":     c.OriginalURL(),
				"method":   c.Method(),
				"status":   status,
				"trace_id": GetTraceID(c),
			}
			if err != nil {
				entry["message"] = err.Error()
			}
			eb, _ := json.Marshal(entry)
			pipe := rdb.Pipeline()
			pipe.LPush(ctx, healthsvc.KeyErrorLog, eb)
			pipe.LTrim(ctx, healthsvc.KeyErrorLog, 0, healthsvc.ErrorLogSize-1)
			_, _ = pipe.Exec(ctx)
		}
		return err
	}
}

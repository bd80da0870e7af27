package middlewares

import (
	"time"

	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
)

// AccessLog writes one structured line per request: 5xx at error, 4xx at warn.
// Errors from the chain go through the app error handler first so the logged
// status is the one the client gets.
func AccessLog(log *logger.Logger) fiber.Handler {
	l := log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		kv := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
			"request_id", c.Locals("reqid"),
		}
		// diisi AuthMiddleware di group
		if uid, ok := c.Locals("user_id").(string); ok {
			kv = append(kv, "user_id", uid)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			l.Errorw("request", kv...)
		case status >= fiber.StatusBadRequest:
			l.Warnw("request", kv...)
		default:
			l.Infow("request", kv...)
		}
		return nil
	}
}

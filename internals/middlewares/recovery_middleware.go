package middlewares

import (
	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware menangkap panic dan mengembalikan error 500
func RecoveryMiddleware(log *logger.Logger) fiber.Handler {
	l := log.Named("panic")
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			l.Errorw("panic recovered",
				"panic", e,
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals("reqid"),
			)
		},
	})
}

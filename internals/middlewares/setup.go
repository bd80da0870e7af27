package middlewares

import (
	"time"

	"pesantrenku_backend/internals/configs"
	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
)

// SetupMiddlewares pasang middleware global (urutan penting: recover paling luar).
func SetupMiddlewares(app *fiber.App, cfg configs.ServerConfig, log *logger.Logger) {
	app.Use(RecoveryMiddleware(log))
	app.Use(RequestID(15 * time.Second))
	app.Use(AccessLog(log))
	app.Use(CorsMiddleware(cfg.AllowedOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(GlobalRateLimiter())
}

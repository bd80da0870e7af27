package middlewares

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	app := fiber.New()
	app.Use(RequestID(5 * time.Second))
	app.Use(AccessLog(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db mati") })

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/ok", fiber.StatusOK, zapcore.InfoLevel},
		{"/missing", fiber.StatusNotFound, zapcore.WarnLevel},
		{"/boom", fiber.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		req.Header.Set(fiber.HeaderXRequestID, "req-"+tt.path)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
	}

	entries := logs.All()
	require.Len(t, entries, len(tests))
	for i, tt := range tests {
		e := entries[i]
		fields := e.ContextMap()
		assert.Equal(t, tt.level, e.Level, tt.path)
		assert.Equal(t, "http", e.LoggerName)
		assert.Equal(t, tt.path, fields["path"])
		assert.EqualValues(t, tt.status, fields["status"])
		assert.Equal(t, "req-"+tt.path, fields["request_id"])
	}
	assert.Equal(t, "u-1", entries[0].ContextMap()["user_id"])
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
}

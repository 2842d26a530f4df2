package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoggerMiddleware logs one line per request. Health and metrics
// scrapes log at Debug, everything else at Info. Authenticated
// requests carry the acting user.
func LoggerMiddleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		reqID, _ := c.Locals(CtxRequestID).(string)
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if username := GetUsername(c); username != "" {
			fields = append(fields, zap.String("username", username), zap.String("role", GetRole(c)))
		}

		switch c.Path() {
		case "/health", "/metrics":
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}

		return err
	}
}

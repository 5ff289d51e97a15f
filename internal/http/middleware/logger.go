package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorLocalKey holds an error recorded with SetError.
const ErrorLocalKey = "handler_error"

// Logger writes one structured entry per request with request_id, method, path,
// status and latency (milliseconds). 5xx responses log at error level, 4xx at warn.
func Logger(log *zap.Logger) fiber.Handler {
	log = log.Named("http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := statusOf(c, err)
		fields := []zap.Field{
			zap.String("request_id", RequestIDFromCtx(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		cause := err
		if cause == nil {
			cause, _ = c.Locals(ErrorLocalKey).(error)
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			if cause != nil {
				fields = append(fields, zap.Error(cause))
			}
			log.Error("http_request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}

		return err
	}
}

// SetError attaches an internal error to the request so Logger reports it even though
// the handler already rendered a response.
func SetError(c *fiber.Ctx, err error) {
	c.Locals(ErrorLocalKey, err)
}

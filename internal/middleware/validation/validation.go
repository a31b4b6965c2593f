package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/pkg/logger"
)

const maxIDLength = 64

// Middleware rejects malformed period parameters and oversized identifiers
// before any handler runs. Period type and key are validated with the same
// parser the aggregator uses, so a request that passes here never fails
// key parsing downstream.
func Middleware() fiber.Handler {
	log := logger.GetLogger()

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost {
			contentType := c.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Content-Type must be application/json",
				})
			}
		}

		periodType := c.Query("period_type")
		if periodType != "" && !period.IsValidType(periodType) {
			return badParam(c, "period_type must be week, month or quarter")
		}

		periodKey := c.Query("period_key")
		if periodKey != "" {
			if periodType == "" {
				return badParam(c, "period_key requires period_type")
			}
			if _, err := period.ParseKey(periodType, periodKey); err != nil {
				log.Debug("rejected period key",
					zap.String("period_type", periodType),
					zap.String("period_key", periodKey))
				return badParam(c, "invalid period_key for period_type")
			}
		}

		for _, name := range []string{"customer_id", "task_id"} {
			if v := c.Query(name); len(v) > maxIDLength {
				return badParam(c, name+" exceeds maximum length")
			}
		}
		if v := c.Params("task_id"); len(v) > maxIDLength {
			return badParam(c, "task_id exceeds maximum length")
		}

		return c.Next()
	}
}

func badParam(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/internal/storage/store"
	"github.com/callportrait/backend/pkg/logger"
)

type PeriodHandler struct {
	store *store.Client
}

func NewPeriodHandler(store *store.Client) *PeriodHandler {
	return &PeriodHandler{
		store: store,
	}
}

// ListPeriods returns tracked period states, newest key first.
func (h *PeriodHandler) ListPeriods(c *fiber.Ctx) error {
	periodType := c.Query("type")
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if periodType != "" && !period.IsValidType(periodType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be week, month or quarter",
		})
	}

	states, err := h.store.ListPeriodStates(c.Context(), periodType, limit)
	if err != nil {
		logger.Error("Failed to list period states", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list periods",
		})
	}

	return c.JSON(fiber.Map{
		"periods": states,
		"count":   len(states),
	})
}

// GetCurrentPeriods returns the keys and labels for the period containing
// now, one per period type.
func (h *PeriodHandler) GetCurrentPeriods(c *fiber.Ctx) error {
	now := time.Now()

	current := make(map[string]fiber.Map, 3)
	for _, pt := range []string{period.TypeWeek, period.TypeMonth, period.TypeQuarter} {
		key, err := period.KeyFor(pt, now)
		if err != nil {
			logger.Error("Failed to derive current period", zap.String("period_type", pt), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to derive current periods",
			})
		}
		previous, err := period.PreviousKey(pt, now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to derive current periods",
			})
		}
		current[pt] = fiber.Map{
			"period_key": key,
			"label":      period.Label(pt, key),
			"previous":   previous,
		}
	}

	return c.JSON(fiber.Map{
		"current": current,
		"time":    now.Unix(),
	})
}

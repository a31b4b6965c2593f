package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/portrait"
	"github.com/callportrait/backend/pkg/logger"
)

type PortraitHandler struct {
	service *portrait.Service
}

func NewPortraitHandler(service *portrait.Service) *PortraitHandler {
	return &PortraitHandler{
		service: service,
	}
}

// GetCustomerPortrait returns one customer's snapshot for a period, plus
// their recent history when present.
func (h *PortraitHandler) GetCustomerPortrait(c *fiber.Ctx) error {
	customerID := c.Query("customer_id")
	taskID := c.Query("task_id")
	periodType := c.Query("period_type")
	periodKey := c.Query("period_key")

	if customerID == "" || taskID == "" || periodType == "" || periodKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_id, task_id, period_type and period_key are required",
		})
	}

	snapshot, err := h.service.CustomerPortrait(c.Context(), customerID, taskID, periodType, periodKey)
	if err != nil {
		logger.Error("Failed to get customer portrait", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get customer portrait",
		})
	}
	if snapshot == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No portrait for this customer and period",
		})
	}

	return c.JSON(fiber.Map{
		"portrait": snapshot,
	})
}

// GetCustomerHistory returns a customer's snapshots across recent periods.
func (h *PortraitHandler) GetCustomerHistory(c *fiber.Ctx) error {
	customerID := c.Query("customer_id")
	periodType := c.Query("period_type")
	if customerID == "" || periodType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_id and period_type are required",
		})
	}

	snapshots, err := h.service.CustomerHistory(c.Context(), customerID, periodType, c.QueryInt("limit"))
	if err != nil {
		logger.Error("Failed to list customer history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list customer history",
		})
	}

	return c.JSON(fiber.Map{
		"customer_id": customerID,
		"period_type": periodType,
		"snapshots":   snapshots,
		"count":       len(snapshots),
	})
}

// GetPeriodSummary returns all task rollups for one period.
func (h *PortraitHandler) GetPeriodSummary(c *fiber.Ctx) error {
	periodType := c.Query("period_type")
	periodKey := c.Query("period_key")
	if periodType == "" || periodKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type and period_key are required",
		})
	}

	summaries, err := h.service.PeriodSummary(c.Context(), periodType, periodKey)
	if err != nil {
		logger.Error("Failed to get period summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get period summary",
		})
	}

	return c.JSON(fiber.Map{
		"period_type": periodType,
		"period_key":  periodKey,
		"summaries":   summaries,
		"count":       len(summaries),
	})
}

// GetTrend returns one metric folded across tasks for recent periods.
func (h *PortraitHandler) GetTrend(c *fiber.Ctx) error {
	periodType := c.Query("period_type")
	if periodType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type is required",
		})
	}
	metric := c.Query("metric", "connect_rate")

	points, err := h.service.Trend(c.Context(), periodType, metric, c.QueryInt("limit"), time.Now())
	if err != nil {
		logger.Error("Failed to compute trend", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"period_type": periodType,
		"metric":      metric,
		"points":      points,
	})
}

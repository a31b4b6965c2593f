package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/portrait"
	"github.com/callportrait/backend/pkg/logger"
)

type TaskHandler struct {
	service *portrait.Service
}

func NewTaskHandler(service *portrait.Service) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// GetTaskSummary returns one task's rollup for a period.
func (h *TaskHandler) GetTaskSummary(c *fiber.Ctx) error {
	taskID := c.Params("task_id")
	periodType := c.Query("period_type")
	periodKey := c.Query("period_key")
	if periodType == "" || periodKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type and period_key are required",
		})
	}

	summary, err := h.service.TaskSummary(c.Context(), taskID, periodType, periodKey)
	if err != nil {
		logger.Error("Failed to get task summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get task summary",
		})
	}
	if summary == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No summary for this task and period",
		})
	}

	return c.JSON(fiber.Map{
		"summary": summary,
	})
}

// GetTaskTrend returns a task's rollups across recent periods, newest first.
func (h *TaskHandler) GetTaskTrend(c *fiber.Ctx) error {
	taskID := c.Params("task_id")
	periodType := c.Query("period_type")
	if periodType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type is required",
		})
	}

	summaries, err := h.service.TaskTrend(c.Context(), taskID, periodType, c.QueryInt("limit"))
	if err != nil {
		logger.Error("Failed to get task trend", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get task trend",
		})
	}

	return c.JSON(fiber.Map{
		"task_id":     taskID,
		"period_type": periodType,
		"summaries":   summaries,
		"count":       len(summaries),
	})
}

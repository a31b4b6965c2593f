package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/etl"
	"github.com/callportrait/backend/internal/llm"
	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/internal/portrait"
	"github.com/callportrait/backend/internal/storage/store"
	"github.com/callportrait/backend/pkg/logger"
)

// AdminHandler exposes the operational triggers: sync a day, run the
// sentiment backlog, compute a period, rebuild task rollups. The analyzer
// is nil when the LLM is disabled.
type AdminHandler struct {
	syncer     *etl.Syncer
	analyzer   *llm.Analyzer
	tracker    *period.Tracker
	aggregator *portrait.Aggregator
	service    *portrait.Service
	store      *store.Client
}

func NewAdminHandler(syncer *etl.Syncer, analyzer *llm.Analyzer, tracker *period.Tracker, aggregator *portrait.Aggregator, service *portrait.Service, store *store.Client) *AdminHandler {
	return &AdminHandler{
		syncer:     syncer,
		analyzer:   analyzer,
		tracker:    tracker,
		aggregator: aggregator,
		service:    service,
		store:      store,
	}
}

// TriggerSync syncs one calendar day from the source database. Defaults
// to yesterday when no date is given.
func (h *AdminHandler) TriggerSync(c *fiber.Ctx) error {
	var req struct {
		Date string `json:"date"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	day := time.Now().AddDate(0, 0, -1)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be YYYY-MM-DD",
			})
		}
		day = parsed
	}

	result, err := h.syncer.SyncDate(c.Context(), day)
	if err != nil {
		logger.Error("Sync failed", zap.String("date", day.Format("2006-01-02")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sync failed",
		})
	}

	return c.JSON(result)
}

// TriggerAnalyze runs the LLM sentiment backlog.
func (h *AdminHandler) TriggerAnalyze(c *fiber.Ctx) error {
	if h.analyzer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "LLM analysis is not enabled",
		})
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	result, err := h.analyzer.AnalyzeBatch(c.Context(), req.Limit)
	if err != nil {
		logger.Error("Sentiment batch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sentiment analysis failed",
		})
	}

	return c.JSON(result)
}

// TriggerCompute runs the full portrait computation for one period and
// invalidates its cached reads on success.
func (h *AdminHandler) TriggerCompute(c *fiber.Ctx) error {
	var req struct {
		PeriodType string `json:"period_type"`
		PeriodKey  string `json:"period_key"`
		Force      bool   `json:"force"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PeriodType == "" || req.PeriodKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type and period_key are required",
		})
	}

	result, err := h.tracker.Compute(c.Context(), req.PeriodType, req.PeriodKey, req.Force)
	if err != nil {
		if errors.Is(err, period.ErrInvalidPeriodKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Compute failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Compute failed",
		})
	}

	if result.Status == period.ResultSuccess {
		h.service.InvalidatePeriod(c.Context(), req.PeriodType, req.PeriodKey)
	}

	return c.JSON(result)
}

// TriggerTaskSummary rebuilds the task rollups for one period from the
// persisted customer snapshots, without recomputing the snapshots.
func (h *AdminHandler) TriggerTaskSummary(c *fiber.Ctx) error {
	var req struct {
		PeriodType string `json:"period_type"`
		PeriodKey  string `json:"period_key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PeriodType == "" || req.PeriodKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period_type and period_key are required",
		})
	}

	if err := h.aggregator.ComputeTaskSummaries(c.Context(), req.PeriodType, req.PeriodKey); err != nil {
		if errors.Is(err, period.ErrInvalidPeriodKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Task summary rebuild failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Task summary rebuild failed",
		})
	}

	h.service.InvalidatePeriod(c.Context(), req.PeriodType, req.PeriodKey)

	return c.JSON(fiber.Map{
		"status":      "success",
		"period_type": req.PeriodType,
		"period_key":  req.PeriodKey,
	})
}

// GetPeriodStatus lists tracked period states for operators.
func (h *AdminHandler) GetPeriodStatus(c *fiber.Ctx) error {
	periodType := c.Query("type")
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	states, err := h.store.ListPeriodStates(c.Context(), periodType, limit)
	if err != nil {
		logger.Error("Failed to list period states", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list period states",
		})
	}

	return c.JSON(fiber.Map{
		"periods": states,
		"count":   len(states),
	})
}

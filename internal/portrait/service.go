package portrait

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/cache/redis"
	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/pkg/logger"
)

// QueryStore is the read side of the snapshot store.
type QueryStore interface {
	GetCustomerSnapshot(ctx context.Context, customerID, taskID, periodType, periodKey string) (*models.CustomerPeriodSnapshot, error)
	ListCustomerSnapshots(ctx context.Context, customerID, periodType string, limit int) ([]*models.CustomerPeriodSnapshot, error)
	ListSnapshotsByPeriod(ctx context.Context, periodType, periodKey string) ([]*models.CustomerPeriodSnapshot, error)
	GetTaskSummary(ctx context.Context, taskID, periodType, periodKey string) (*models.TaskPeriodSummary, error)
	ListTaskSummariesByPeriod(ctx context.Context, periodType, periodKey string) ([]*models.TaskPeriodSummary, error)
	ListTaskSummaries(ctx context.Context, taskID, periodType string, limit int) ([]*models.TaskPeriodSummary, error)
}

// TrendPoint is one period's value for a trend metric, newest first.
type TrendPoint struct {
	PeriodKey string  `json:"period_key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Tasks     int     `json:"tasks"`
}

// Service serves the read API over computed snapshots and summaries.
// The cache is optional; a nil cache client means every read hits storage.
type Service struct {
	store  QueryStore
	cache  *redis.Client
	logger *zap.Logger
}

func NewService(store QueryStore, cache *redis.Client) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.GetLogger(),
	}
}

// CustomerPortrait returns the snapshot for one (customer, task, period),
// or nil when that combination was never computed.
func (s *Service) CustomerPortrait(ctx context.Context, customerID, taskID, periodType, periodKey string) (*models.CustomerPeriodSnapshot, error) {
	key := redis.Key("customer", customerID, taskID, periodType, periodKey)

	var cached models.CustomerPeriodSnapshot
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot, err := s.store.GetCustomerSnapshot(ctx, customerID, taskID, periodType, periodKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer snapshot: %w", err)
	}
	if snapshot != nil {
		s.cacheSet(ctx, key, snapshot)
	}
	return snapshot, nil
}

// CustomerHistory returns a customer's recent snapshots across tasks,
// newest period first.
func (s *Service) CustomerHistory(ctx context.Context, customerID, periodType string, limit int) ([]*models.CustomerPeriodSnapshot, error) {
	if limit <= 0 {
		limit = 12
	}
	snapshots, err := s.store.ListCustomerSnapshots(ctx, customerID, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer snapshots: %w", err)
	}
	return snapshots, nil
}

// PeriodSummary returns every task's rollup for one period.
func (s *Service) PeriodSummary(ctx context.Context, periodType, periodKey string) ([]*models.TaskPeriodSummary, error) {
	key := redis.Key("summary", periodType, periodKey)

	var cached []*models.TaskPeriodSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	summaries, err := s.store.ListTaskSummariesByPeriod(ctx, periodType, periodKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list task summaries: %w", err)
	}
	if len(summaries) > 0 {
		s.cacheSet(ctx, key, summaries)
	}
	return summaries, nil
}

// TaskSummary returns one task's rollup for one period, or nil when absent.
func (s *Service) TaskSummary(ctx context.Context, taskID, periodType, periodKey string) (*models.TaskPeriodSummary, error) {
	summary, err := s.store.GetTaskSummary(ctx, taskID, periodType, periodKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get task summary: %w", err)
	}
	return summary, nil
}

// TaskTrend returns a task's recent summaries, newest period first.
func (s *Service) TaskTrend(ctx context.Context, taskID, periodType string, limit int) ([]*models.TaskPeriodSummary, error) {
	if limit <= 0 {
		limit = 12
	}
	summaries, err := s.store.ListTaskSummaries(ctx, taskID, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list task summaries: %w", err)
	}
	return summaries, nil
}

// Trend folds one metric across all tasks for the most recent periods.
// Periods with no computed summaries contribute a zero point so the series
// stays contiguous.
func (s *Service) Trend(ctx context.Context, periodType, metric string, limit int, now time.Time) ([]TrendPoint, error) {
	if limit <= 0 || limit > 36 {
		limit = 12
	}
	metric = strings.ToLower(strings.TrimSpace(metric))
	if metric == "" {
		metric = "connect_rate"
	}
	if !validTrendMetric(metric) {
		return nil, fmt.Errorf("unknown trend metric: %s", metric)
	}

	key := redis.Key("trend", periodType, metric, fmt.Sprintf("%d", limit))

	var cached []TrendPoint
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	keys, err := period.Recent(periodType, now, limit)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(keys))
	for _, pk := range keys {
		summaries, err := s.store.ListTaskSummariesByPeriod(ctx, periodType, pk)
		if err != nil {
			return nil, fmt.Errorf("failed to list task summaries: %w", err)
		}
		points = append(points, TrendPoint{
			PeriodKey: pk,
			Label:     period.Label(periodType, pk),
			Value:     metricValue(metric, summaries),
			Tasks:     len(summaries),
		})
	}

	s.cacheSet(ctx, key, points)
	return points, nil
}

// InvalidatePeriod drops cached reads for a period after a recompute.
func (s *Service) InvalidatePeriod(ctx context.Context, periodType, periodKey string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePeriod(ctx, periodType, periodKey); err != nil {
		s.logger.Warn("failed to invalidate period cache",
			zap.String("period_type", periodType),
			zap.String("period_key", periodKey),
			zap.Error(err))
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, value interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, value)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func validTrendMetric(metric string) bool {
	switch metric {
	case "total_calls", "connected_calls", "connect_rate", "satisfied_rate",
		"positive_rate", "avg_sentiment_score", "high_risk_rate", "deep_willingness_rate":
		return true
	}
	return false
}

// metricValue aggregates one metric over a period's task summaries. Count
// metrics sum; rate metrics average over the tasks that reported them.
func metricValue(metric string, summaries []*models.TaskPeriodSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}

	var total float64
	for _, s := range summaries {
		switch metric {
		case "total_calls":
			total += float64(s.TotalCalls)
		case "connected_calls":
			total += float64(s.ConnectedCalls)
		case "connect_rate":
			total += s.ConnectRate
		case "satisfied_rate":
			total += s.SatisfiedRate
		case "positive_rate":
			total += s.PositiveRate
		case "avg_sentiment_score":
			total += s.AvgSentimentScore
		case "high_risk_rate":
			total += s.HighRiskRate
		case "deep_willingness_rate":
			total += s.DeepWillingnessRate
		}
	}

	switch metric {
	case "total_calls", "connected_calls":
		return total
	}
	return round4(total / float64(len(summaries)))
}

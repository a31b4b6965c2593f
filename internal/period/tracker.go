package period

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/pkg/logger"
)

// Compute outcome statuses reported to callers.
const (
	ResultSuccess    = "success"
	ResultSkipped    = "skipped"
	ResultInProgress = "in_progress"
	ResultFailed     = "failed"
)

// Store persists period lifecycle state.
type Store interface {
	// RegisterPeriod creates the state row in "pending" if it does not
	// exist yet. Existing rows are left untouched.
	RegisterPeriod(ctx context.Context, state *models.PeriodState) error

	// GetPeriodState returns nil when the period was never registered.
	GetPeriodState(ctx context.Context, periodType, periodKey string) (*models.PeriodState, error)

	// ClaimComputing atomically moves the row to "computing" and reports
	// whether this caller won the claim. A row already computing is never
	// claimable; a completed row is claimable only with force.
	ClaimComputing(ctx context.Context, periodType, periodKey string, force bool) (bool, error)

	MarkPeriodCompleted(ctx context.Context, periodType, periodKey string, customers, records int) error
	MarkPeriodFailed(ctx context.Context, periodType, periodKey, message string) error
}

// Aggregator computes all portraits for one period.
type Aggregator interface {
	ComputePeriod(ctx context.Context, periodType, periodKey string) (customers, records int, err error)
}

// Result is the outcome of a compute trigger.
type Result struct {
	Status     string `json:"status"`
	PeriodType string `json:"period_type"`
	PeriodKey  string `json:"period_key"`
	Customers  int    `json:"customers_affected"`
	Records    int    `json:"records_affected"`
	Message    string `json:"message,omitempty"`
}

// Tracker serializes period computation: at most one computation per
// (period_type, period_key) at a time, with completed periods recomputed
// only on explicit request.
type Tracker struct {
	store      Store
	aggregator Aggregator
	logger     *zap.Logger
}

func NewTracker(store Store, aggregator Aggregator) *Tracker {
	return &Tracker{
		store:      store,
		aggregator: aggregator,
		logger:     logger.GetLogger().With(zap.String("component", "period_tracker")),
	}
}

// Register ensures a state row exists for the period. Safe to call
// repeatedly; the row keeps whatever status it already has.
func (t *Tracker) Register(ctx context.Context, periodType, periodKey string) (*models.PeriodState, error) {
	r, err := ParseKey(periodType, periodKey)
	if err != nil {
		return nil, err
	}
	state := &models.PeriodState{
		PeriodType:  periodType,
		PeriodKey:   periodKey,
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
		Status:      models.PeriodStatusPending,
	}
	if err := t.store.RegisterPeriod(ctx, state); err != nil {
		return nil, fmt.Errorf("register period %s/%s: %w", periodType, periodKey, err)
	}
	return t.store.GetPeriodState(ctx, periodType, periodKey)
}

// Compute runs the aggregation for one period under the state machine.
// Aggregation failures land in the period state and come back as a
// failed Result, not as an error; only invalid input and storage faults
// surface as errors.
func (t *Tracker) Compute(ctx context.Context, periodType, periodKey string, force bool) (*Result, error) {
	if _, err := ParseKey(periodType, periodKey); err != nil {
		return nil, err
	}

	if _, err := t.Register(ctx, periodType, periodKey); err != nil {
		return nil, err
	}

	claimed, err := t.store.ClaimComputing(ctx, periodType, periodKey, force)
	if err != nil {
		return nil, fmt.Errorf("claim period %s/%s: %w", periodType, periodKey, err)
	}
	if !claimed {
		state, err := t.store.GetPeriodState(ctx, periodType, periodKey)
		if err != nil {
			return nil, err
		}
		status := ResultInProgress
		message := "computation already running"
		if state != nil && state.Status == models.PeriodStatusCompleted {
			status = ResultSkipped
			message = "already computed"
		}
		return &Result{Status: status, PeriodType: periodType, PeriodKey: periodKey, Message: message}, nil
	}

	t.logger.Info("computing period",
		zap.String("period_type", periodType),
		zap.String("period_key", periodKey),
		zap.Bool("force", force))

	start := time.Now()
	customers, records, err := t.aggregator.ComputePeriod(ctx, periodType, periodKey)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Error("period computation failed",
			zap.String("period_type", periodType),
			zap.String("period_key", periodKey),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		metrics.ObserveCompute(periodType, ResultFailed, elapsed)
		if markErr := t.store.MarkPeriodFailed(ctx, periodType, periodKey, err.Error()); markErr != nil {
			return nil, fmt.Errorf("mark period failed %s/%s: %w", periodType, periodKey, markErr)
		}
		return &Result{
			Status:     ResultFailed,
			PeriodType: periodType,
			PeriodKey:  periodKey,
			Message:    err.Error(),
		}, nil
	}

	if err := t.store.MarkPeriodCompleted(ctx, periodType, periodKey, customers, records); err != nil {
		return nil, fmt.Errorf("mark period completed %s/%s: %w", periodType, periodKey, err)
	}

	t.logger.Info("period computed",
		zap.String("period_type", periodType),
		zap.String("period_key", periodKey),
		zap.Int("customers", customers),
		zap.Int("records", records),
		zap.Duration("elapsed", elapsed))
	metrics.ObserveCompute(periodType, ResultSuccess, elapsed)

	return &Result{
		Status:     ResultSuccess,
		PeriodType: periodType,
		PeriodKey:  periodKey,
		Customers:  customers,
		Records:    records,
	}, nil
}

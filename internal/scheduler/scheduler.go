package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/etl"
	"github.com/callportrait/backend/internal/llm"
	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/pkg/config"
	"github.com/callportrait/backend/pkg/logger"
)

// Scheduler drives the nightly sync, the sentiment backlog and the
// previous-period computations. Overlapping compute triggers are resolved
// by the tracker's claim, so a slow run never doubles up.
type Scheduler struct {
	cron     *cron.Cron
	syncer   *etl.Syncer
	analyzer *llm.Analyzer
	tracker  *period.Tracker
	cfg      config.SchedulerConfig
	logger   *zap.Logger
}

func New(cfg config.SchedulerConfig, syncer *etl.Syncer, analyzer *llm.Analyzer, tracker *period.Tracker) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		syncer:   syncer,
		analyzer: analyzer,
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger.GetLogger().With(zap.String("component", "scheduler")),
	}
}

// Start registers all jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"sync_yesterday", s.cfg.SyncCron, s.syncYesterday},
		{"analyze_backlog", s.cfg.AnalyzeCron, s.analyzeBacklog},
		{"compute_weekly", s.cfg.WeeklyCron, func() { s.computePrevious(period.TypeWeek) }},
		{"compute_monthly", s.cfg.MonthlyCron, func() { s.computePrevious(period.TypeMonth) }},
		{"compute_quarterly", s.cfg.QuarterCron, func() { s.computePrevious(period.TypeQuarter) }},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return err
		}
		s.logger.Info("scheduled job", zap.String("job", job.name), zap.String("cron", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) syncYesterday() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	day := time.Now().AddDate(0, 0, -1)
	result, err := s.syncer.SyncDate(ctx, day)
	if err != nil {
		s.logger.Error("nightly sync failed", zap.String("date", day.Format("2006-01-02")), zap.Error(err))
		return
	}
	s.logger.Info("nightly sync finished",
		zap.String("date", result.Date),
		zap.String("status", result.Status),
		zap.Int("synced", result.Synced))
}

func (s *Scheduler) analyzeBacklog() {
	if s.analyzer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	limit := s.cfg.AnalyzeLimit
	if limit <= 0 {
		limit = 200
	}
	result, err := s.analyzer.AnalyzeBatch(ctx, limit)
	if err != nil {
		s.logger.Error("sentiment backlog failed", zap.Error(err))
		return
	}
	s.logger.Info("sentiment backlog finished",
		zap.Int("analyzed", result.Analyzed),
		zap.Int("failed", result.Failed))
}

func (s *Scheduler) computePrevious(periodType string) {
	key, err := period.PreviousKey(periodType, time.Now())
	if err != nil {
		s.logger.Error("failed to derive previous period", zap.String("period_type", periodType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	result, err := s.tracker.Compute(ctx, periodType, key, false)
	if err != nil {
		s.logger.Error("scheduled compute failed",
			zap.String("period_type", periodType),
			zap.String("period_key", key),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled compute finished",
		zap.String("period_type", periodType),
		zap.String("period_key", key),
		zap.String("status", result.Status),
		zap.Int("customers", result.Customers),
		zap.Int("records", result.Records))
}

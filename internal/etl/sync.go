package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/internal/rules"
	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/internal/storage/source"
	"github.com/callportrait/backend/pkg/logger"
	"github.com/callportrait/backend/pkg/retry"
)

// SourceReader reads raw calls and transcripts out of the autodialer
// shards.
type SourceReader interface {
	FetchRecords(ctx context.Context, day time.Time) ([]*source.RawRecord, error)
	FetchTranscript(ctx context.Context, callID string, shardDate time.Time) (string, error)
}

// Sink persists enriched call records.
type Sink interface {
	UpsertCallRecords(ctx context.Context, records []*models.CallRecord) error
}

// Result summarizes one sync run.
type Result struct {
	Status string `json:"status"`
	Date   string `json:"date"`
	Synced int    `json:"synced"`
	Reason string `json:"reason,omitempty"`
}

// Syncer pulls one day of calls from the source database, attaches
// transcripts, runs the rule classifier and writes enriched records in
// batches. Each batch commits independently, so a mid-run failure keeps
// everything already written.
type Syncer struct {
	src       SourceReader
	sink      Sink
	engine    *rules.Engine
	batchSize int
	policy    retry.Policy
	logger    *zap.Logger
}

// NewSyncer accepts a nil src when no source database is configured; the
// syncer then reports skipped runs instead of failing.
func NewSyncer(src SourceReader, sink Sink, batchSize int) *Syncer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Syncer{
		src:       src,
		sink:      sink,
		engine:    rules.NewEngine(),
		batchSize: batchSize,
		policy:    retry.DefaultPolicy(),
		logger:    logger.GetLogger().With(zap.String("component", "etl")),
	}
}

// SyncDate ingests all calls of one calendar day.
func (s *Syncer) SyncDate(ctx context.Context, day time.Time) (*Result, error) {
	dateStr := day.Format("2006-01-02")
	if s.src == nil {
		s.logger.Warn("source database not configured, skipping sync")
		return &Result{Status: "skipped", Date: dateStr, Reason: "source_db_unavailable"}, nil
	}

	start := time.Now()
	s.logger.Info("starting sync", zap.String("date", dateStr))

	raw, err := retry.DoWithResult(ctx, s.policy, func() ([]*source.RawRecord, error) {
		return s.src.FetchRecords(ctx, day)
	})
	if err != nil {
		metrics.RecordsSynced.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("fetch source records for %s: %w", dateStr, err)
	}
	if len(raw) == 0 {
		s.logger.Info("nothing to sync", zap.String("date", dateStr))
		return &Result{Status: "success", Date: dateStr}, nil
	}

	synced := 0
	for i := 0; i < len(raw); i += s.batchSize {
		end := i + s.batchSize
		if end > len(raw) {
			end = len(raw)
		}
		batch, err := s.enrichBatch(ctx, raw[i:end])
		if err != nil {
			return nil, err
		}
		if err := s.sink.UpsertCallRecords(ctx, batch); err != nil {
			metrics.RecordsSynced.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("write batch for %s: %w", dateStr, err)
		}
		synced += len(batch)
		s.logger.Info("batch synced", zap.Int("synced", synced), zap.Int("total", len(raw)))
	}

	metrics.RecordsSynced.WithLabelValues("success").Add(float64(synced))
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("sync finished",
		zap.String("date", dateStr),
		zap.Int("synced", synced),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{Status: "success", Date: dateStr, Synced: synced}, nil
}

func (s *Syncer) enrichBatch(ctx context.Context, raw []*source.RawRecord) ([]*models.CallRecord, error) {
	records := make([]*models.CallRecord, 0, len(raw))
	for _, r := range raw {
		transcript, err := s.src.FetchTranscript(ctx, r.CallID, r.CallDate)
		if err != nil {
			// A call without retrievable details still syncs; the
			// classifier falls back to the numeric fields.
			s.logger.Warn("transcript fetch failed",
				zap.String("call_id", r.CallID),
				zap.Error(err))
			transcript = ""
		}

		var labels []string
		if r.LevelName != "" {
			labels = []string{r.LevelName}
		}

		outcome := s.engine.Classify(transcript, labels, r.BillMS/1000, r.Rounds)
		metrics.CallsClassified.WithLabelValues(displaySatisfaction(outcome.Satisfaction)).Inc()

		records = append(records, &models.CallRecord{
			ID:                 uuid.New().String(),
			CallID:             r.CallID,
			TaskID:             r.TaskID,
			CustomerID:         r.CustomerID,
			Phone:              r.Phone,
			CallDate:           r.CallDate,
			DurationMS:         r.DurationMS,
			BillMS:             r.BillMS,
			Rounds:             r.Rounds,
			IntentionLevel:     r.IntentionResult,
			HangupBy:           r.HangupBy,
			CallStatus:         r.CallStatus,
			Transcript:         transcript,
			ASRLabels:          labels,
			Satisfaction:       outcome.Satisfaction,
			SatisfactionSource: outcome.SatisfactionSource,
			Emotion:            outcome.Emotion,
			ComplaintRisk:      outcome.ComplaintRisk,
			ChurnRisk:          outcome.ChurnRisk,
			Willingness:        outcome.Willingness,
			RiskLevel:          outcome.RiskLevel,
		})
	}
	return records, nil
}

func displaySatisfaction(s string) string {
	if s == rules.SatisfactionNone {
		return "none"
	}
	return s
}

package portrait

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/internal/rules"
	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/pkg/logger"
)

// Store is the persistence surface the aggregator needs.
type Store interface {
	ListCallsInRange(ctx context.Context, start, end time.Time) ([]*models.CallRecord, error)
	UpsertCustomerSnapshots(ctx context.Context, snapshots []*models.CustomerPeriodSnapshot) error
	ListSnapshotsByPeriod(ctx context.Context, periodType, periodKey string) ([]*models.CustomerPeriodSnapshot, error)
	UpsertTaskSummaries(ctx context.Context, summaries []*models.TaskPeriodSummary) error
}

// Aggregator computes customer period snapshots and task rollups from
// classified call records. Snapshots are derived data: recomputing over
// unchanged calls produces identical rows apart from computed_at.
type Aggregator struct {
	store     Store
	batchSize int
	logger    *zap.Logger
}

func NewAggregator(store Store, batchSize int) *Aggregator {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Aggregator{
		store:     store,
		batchSize: batchSize,
		logger:    logger.GetLogger().With(zap.String("component", "aggregator")),
	}
}

type groupKey struct {
	customerID string
	taskID     string
}

// ComputePeriod runs the customer-level aggregation for one period, then
// the task-level rollup. The rollup reads the rows the first phase wrote,
// so the two phases never interleave.
func (a *Aggregator) ComputePeriod(ctx context.Context, periodType, periodKey string) (int, int, error) {
	r, err := period.ParseKey(periodType, periodKey)
	if err != nil {
		return 0, 0, err
	}

	calls, err := a.store.ListCallsInRange(ctx, r.Start, r.End)
	if err != nil {
		return 0, 0, fmt.Errorf("list calls for %s: %w", periodKey, err)
	}
	if len(calls) == 0 {
		a.logger.Info("no calls in period", zap.String("period_key", periodKey))
		return 0, 0, nil
	}

	// Group by (customer, task), keeping first-appearance order so that
	// output batches are deterministic.
	groups := make(map[groupKey][]*models.CallRecord)
	var order []groupKey
	for _, call := range calls {
		k := groupKey{customerID: call.CustomerID, taskID: call.TaskID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], call)
	}

	computedAt := time.Now()
	snapshots := make([]*models.CustomerPeriodSnapshot, 0, len(order))
	for _, k := range order {
		snapshots = append(snapshots, buildSnapshot(k, groups[k], periodType, periodKey, r, computedAt))
	}

	for i := 0; i < len(snapshots); i += a.batchSize {
		end := i + a.batchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		if err := a.store.UpsertCustomerSnapshots(ctx, snapshots[i:end]); err != nil {
			return 0, 0, fmt.Errorf("write snapshots for %s: %w", periodKey, err)
		}
	}
	metrics.SnapshotsWritten.WithLabelValues("customer").Add(float64(len(snapshots)))

	if err := a.ComputeTaskSummaries(ctx, periodType, periodKey); err != nil {
		return 0, 0, err
	}

	a.logger.Info("period aggregated",
		zap.String("period_type", periodType),
		zap.String("period_key", periodKey),
		zap.Int("customers", len(snapshots)),
		zap.Int("records", len(calls)))

	return len(snapshots), len(calls), nil
}

func buildSnapshot(k groupKey, calls []*models.CallRecord, periodType, periodKey string, r period.Range, computedAt time.Time) *models.CustomerPeriodSnapshot {
	s := &models.CustomerPeriodSnapshot{
		ID:          uuid.New().String(),
		CustomerID:  k.customerID,
		TaskID:      k.taskID,
		PeriodType:  periodType,
		PeriodKey:   periodKey,
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
		ComputedAt:  computedAt,
	}

	var (
		totalBill      int
		maxBill        int
		minBill        int
		billedCalls    int
		sentimentSum   float64
		sentimentCount int
		results        []rules.CallResult
	)

	for _, call := range calls {
		if s.Phone == "" && call.Phone != "" {
			s.Phone = call.Phone
		}

		s.TotalCalls++
		s.TotalRounds += call.Rounds
		if call.Connected() {
			s.ConnectedCalls++
			billedCalls++
			totalBill += call.BillMS
			if call.BillMS > maxBill {
				maxBill = call.BillMS
			}
			if minBill == 0 || call.BillMS < minBill {
				minBill = call.BillMS
			}
		}

		switch call.IntentionLevel {
		case "A":
			s.LevelACount++
		case "B":
			s.LevelBCount++
		case "C":
			s.LevelCCount++
		case "D":
			s.LevelDCount++
		case "E":
			s.LevelECount++
		case "F":
			s.LevelFCount++
		}

		switch call.HangupBy {
		case 1:
			s.RobotHangupCount++
		case 2:
			s.CustomerHangupCount++
		}

		switch call.Emotion {
		case rules.EmotionPositive:
			s.PositiveCount++
		case rules.EmotionNegative:
			s.NegativeCount++
		case rules.EmotionNeutral:
			s.NeutralCount++
		}
		if call.SentimentScore != nil {
			sentimentSum += *call.SentimentScore
			sentimentCount++
		}

		switch call.ComplaintRisk {
		case rules.RiskHigh:
			s.HighComplaintRisk++
		case rules.RiskMedium:
			s.MediumComplaintRisk++
		case rules.RiskLow:
			s.LowComplaintRisk++
		}
		switch call.ChurnRisk {
		case rules.RiskHigh:
			s.HighChurnRisk++
		case rules.RiskMedium:
			s.MediumChurnRisk++
		case rules.RiskLow:
			s.LowChurnRisk++
		}

		switch call.Satisfaction {
		case rules.SatisfactionSatisfied:
			s.SatisfiedCount++
		case rules.SatisfactionNeutral:
			s.NeutralSatisfactionCount++
		case rules.SatisfactionUnsatisfied:
			s.UnsatisfiedCount++
		}

		switch call.Willingness {
		case rules.WillingnessDeep:
			s.WillingnessDeepCount++
		case rules.WillingnessNormal:
			s.WillingnessNormalCount++
		case rules.WillingnessLow:
			s.WillingnessLowCount++
		}

		switch call.RiskLevel {
		case rules.RiskLevelChurn:
			s.RiskChurnCount++
		case rules.RiskLevelComplaint:
			s.RiskComplaintCount++
		case rules.RiskLevelMedium:
			s.RiskMediumCount++
		case rules.RiskLevelNone:
			s.RiskNoneCount++
		}

		results = append(results, rules.CallResult{
			Outcome: rules.Outcome{
				Satisfaction:       call.Satisfaction,
				SatisfactionSource: call.SatisfactionSource,
				Emotion:            call.Emotion,
				ComplaintRisk:      call.ComplaintRisk,
				ChurnRisk:          call.ChurnRisk,
				Willingness:        call.Willingness,
				RiskLevel:          call.RiskLevel,
			},
			CallDate:        call.CallDate,
			DurationSeconds: call.BillMS / 1000,
			Rounds:          call.Rounds,
		})
	}

	if s.TotalCalls > 0 {
		s.ConnectRate = round4(float64(s.ConnectedCalls) / float64(s.TotalCalls))
		s.AvgRounds = round2(float64(s.TotalRounds) / float64(s.TotalCalls))
	}

	// Duration stats are over billed time only; avg/min/max ignore calls
	// that never connected.
	s.TotalDuration = totalBill / 1000
	s.MaxDuration = maxBill / 1000
	s.MinDuration = minBill / 1000
	if billedCalls > 0 {
		s.AvgDuration = round2(float64(totalBill) / float64(billedCalls) / 1000)
	}

	if sentimentCount > 0 {
		s.AvgSentimentScore = round4(sentimentSum / float64(sentimentCount))
	} else {
		s.AvgSentimentScore = 0.5
	}

	final := rules.Reconcile(results)
	s.FinalSatisfaction = final.Satisfaction
	s.FinalEmotion = final.Emotion
	s.FinalComplaintRisk = final.ComplaintRisk
	s.FinalChurnRisk = final.ChurnRisk
	s.FinalWillingness = final.Willingness
	s.FinalRiskLevel = final.RiskLevel

	return s
}

// ComputeTaskSummaries rolls persisted customer snapshots of one period
// up to task level. It must run strictly after the customer phase.
func (a *Aggregator) ComputeTaskSummaries(ctx context.Context, periodType, periodKey string) error {
	r, err := period.ParseKey(periodType, periodKey)
	if err != nil {
		return err
	}

	snapshots, err := a.store.ListSnapshotsByPeriod(ctx, periodType, periodKey)
	if err != nil {
		return fmt.Errorf("list snapshots for %s: %w", periodKey, err)
	}
	if len(snapshots) == 0 {
		return nil
	}

	byTask := make(map[string][]*models.CustomerPeriodSnapshot)
	var order []string
	for _, s := range snapshots {
		if _, ok := byTask[s.TaskID]; !ok {
			order = append(order, s.TaskID)
		}
		byTask[s.TaskID] = append(byTask[s.TaskID], s)
	}

	computedAt := time.Now()
	summaries := make([]*models.TaskPeriodSummary, 0, len(order))
	for _, taskID := range order {
		summaries = append(summaries, buildTaskSummary(taskID, byTask[taskID], periodType, periodKey, r, computedAt))
	}

	for i := 0; i < len(summaries); i += a.batchSize {
		end := i + a.batchSize
		if end > len(summaries) {
			end = len(summaries)
		}
		if err := a.store.UpsertTaskSummaries(ctx, summaries[i:end]); err != nil {
			return fmt.Errorf("write summaries for %s: %w", periodKey, err)
		}
	}
	metrics.SnapshotsWritten.WithLabelValues("task").Add(float64(len(summaries)))

	return nil
}

func buildTaskSummary(taskID string, snapshots []*models.CustomerPeriodSnapshot, periodType, periodKey string, r period.Range, computedAt time.Time) *models.TaskPeriodSummary {
	t := &models.TaskPeriodSummary{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		PeriodType:  periodType,
		PeriodKey:   periodKey,
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
		ComputedAt:  computedAt,
	}

	var connectRateSum, avgDurationSum, sentimentSum float64
	for _, s := range snapshots {
		t.TotalCustomers++
		t.TotalCalls += s.TotalCalls
		t.ConnectedCalls += s.ConnectedCalls
		connectRateSum += s.ConnectRate
		avgDurationSum += s.AvgDuration
		sentimentSum += s.AvgSentimentScore

		t.SatisfiedCount += s.SatisfiedCount
		t.NeutralSatisfactionCount += s.NeutralSatisfactionCount
		t.UnsatisfiedCount += s.UnsatisfiedCount

		t.PositiveCount += s.PositiveCount
		t.NeutralEmotionCount += s.NeutralCount
		t.NegativeCount += s.NegativeCount

		switch s.FinalRiskLevel {
		case rules.RiskLevelComplaint:
			t.HighComplaintCustomers++
		case rules.RiskLevelChurn:
			t.HighChurnCustomers++
		case rules.RiskLevelMedium:
			t.MediumRiskCustomers++
		case rules.RiskLevelNone:
			t.NoRiskCustomers++
		}

		switch s.FinalWillingness {
		case rules.WillingnessDeep:
			t.DeepWillingnessCount++
		case rules.WillingnessNormal:
			t.NormalWillingnessCount++
		case rules.WillingnessLow:
			t.LowWillingnessCount++
		}
	}

	customers := float64(t.TotalCustomers)
	t.ConnectRate = round4(connectRateSum / customers)
	t.AvgDuration = round2(avgDurationSum / customers)
	t.AvgSentimentScore = round4(sentimentSum / customers)

	if total := t.SatisfiedCount + t.NeutralSatisfactionCount + t.UnsatisfiedCount; total > 0 {
		t.SatisfiedRate = round4(float64(t.SatisfiedCount) / float64(total))
	}
	if total := t.PositiveCount + t.NeutralEmotionCount + t.NegativeCount; total > 0 {
		t.PositiveRate = round4(float64(t.PositiveCount) / float64(total))
	}

	t.HighComplaintRate = round4(float64(t.HighComplaintCustomers) / customers)
	t.HighChurnRate = round4(float64(t.HighChurnCustomers) / customers)
	t.HighRiskRate = round4(float64(t.HighComplaintCustomers+t.HighChurnCustomers) / customers)
	t.DeepWillingnessRate = round4(float64(t.DeepWillingnessCount) / customers)

	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

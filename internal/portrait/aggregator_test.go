package portrait

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callportrait/backend/internal/rules"
	"github.com/callportrait/backend/internal/storage/models"
)

type fakeStore struct {
	calls     []*models.CallRecord
	snapshots map[string]*models.CustomerPeriodSnapshot
	summaries map[string]*models.TaskPeriodSummary
}

func newFakeStore(calls ...*models.CallRecord) *fakeStore {
	return &fakeStore{
		calls:     calls,
		snapshots: make(map[string]*models.CustomerPeriodSnapshot),
		summaries: make(map[string]*models.TaskPeriodSummary),
	}
}

func (f *fakeStore) ListCallsInRange(_ context.Context, start, end time.Time) ([]*models.CallRecord, error) {
	var in []*models.CallRecord
	for _, c := range f.calls {
		if !c.CallDate.Before(start) && !c.CallDate.After(end.AddDate(0, 0, 1)) {
			in = append(in, c)
		}
	}
	return in, nil
}

func (f *fakeStore) UpsertCustomerSnapshots(_ context.Context, snapshots []*models.CustomerPeriodSnapshot) error {
	for _, s := range snapshots {
		key := s.CustomerID + "/" + s.TaskID + "/" + s.PeriodType + "/" + s.PeriodKey
		if existing, ok := f.snapshots[key]; ok {
			id := existing.ID
			clone := *s
			clone.ID = id
			f.snapshots[key] = &clone
			continue
		}
		clone := *s
		f.snapshots[key] = &clone
	}
	return nil
}

func (f *fakeStore) ListSnapshotsByPeriod(_ context.Context, periodType, periodKey string) ([]*models.CustomerPeriodSnapshot, error) {
	var out []*models.CustomerPeriodSnapshot
	for _, s := range f.snapshots {
		if s.PeriodType == periodType && s.PeriodKey == periodKey {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertTaskSummaries(_ context.Context, summaries []*models.TaskPeriodSummary) error {
	for _, s := range summaries {
		clone := *s
		f.summaries[s.TaskID+"/"+s.PeriodType+"/"+s.PeriodKey] = &clone
	}
	return nil
}

func call(customer, task string, day int, billMS, rounds int, outcome rules.Outcome) *models.CallRecord {
	return &models.CallRecord{
		ID:                 customer + "-" + task + "-" + time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC).Format("02"),
		CallID:             customer + task + time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC).Format("20060102"),
		TaskID:             task,
		CustomerID:         customer,
		Phone:              "13800000001",
		CallDate:           time.Date(2025, 11, day, 10, 0, 0, 0, time.UTC),
		DurationMS:         billMS + 5000,
		BillMS:             billMS,
		Rounds:             rounds,
		IntentionLevel:     "B",
		HangupBy:           2,
		Satisfaction:       outcome.Satisfaction,
		SatisfactionSource: outcome.SatisfactionSource,
		Emotion:            outcome.Emotion,
		ComplaintRisk:      outcome.ComplaintRisk,
		ChurnRisk:          outcome.ChurnRisk,
		Willingness:        outcome.Willingness,
		RiskLevel:          outcome.RiskLevel,
	}
}

func TestComputePeriodEmpty(t *testing.T) {
	store := newFakeStore()
	agg := NewAggregator(store, 100)

	customers, records, err := agg.ComputePeriod(context.Background(), "month", "2025-11")
	require.NoError(t, err)
	assert.Zero(t, customers)
	assert.Zero(t, records)
	assert.Empty(t, store.snapshots)
	assert.Empty(t, store.summaries)
}

func TestComputePeriodSnapshotStats(t *testing.T) {
	neutral := rules.Outcome{
		Emotion: rules.EmotionNeutral, ComplaintRisk: rules.RiskLow, ChurnRisk: rules.RiskLow,
		Willingness: rules.WillingnessNormal, RiskLevel: rules.RiskLevelNone,
	}
	unsat := neutral
	unsat.Satisfaction = rules.SatisfactionUnsatisfied
	unsat.SatisfactionSource = rules.SourceKeyword
	unsat.Emotion = rules.EmotionNegative
	unsat.ComplaintRisk = rules.RiskMedium
	unsat.RiskLevel = rules.RiskLevelMedium

	store := newFakeStore(
		call("c1", "t1", 3, 40000, 4, neutral),
		call("c1", "t1", 10, 0, 0, neutral),   // never connected
		call("c1", "t1", 20, 80000, 6, unsat), // most recent, has a verdict
	)
	agg := NewAggregator(store, 100)

	customers, records, err := agg.ComputePeriod(context.Background(), "month", "2025-11")
	require.NoError(t, err)
	assert.Equal(t, 1, customers)
	assert.Equal(t, 3, records)

	s := store.snapshots["c1/t1/month/2025-11"]
	require.NotNil(t, s)

	assert.Equal(t, 3, s.TotalCalls)
	assert.Equal(t, 2, s.ConnectedCalls)
	assert.InDelta(t, 0.6667, s.ConnectRate, 0.0001)

	// Billed-only duration stats: 40s and 80s connected, failed call excluded.
	assert.Equal(t, 120, s.TotalDuration)
	assert.InDelta(t, 60.0, s.AvgDuration, 0.001)
	assert.Equal(t, 80, s.MaxDuration)
	assert.Equal(t, 40, s.MinDuration)

	assert.Equal(t, 10, s.TotalRounds)
	assert.InDelta(t, 3.33, s.AvgRounds, 0.001)

	assert.Equal(t, 3, s.LevelBCount)
	assert.Equal(t, 3, s.CustomerHangupCount)
	assert.Equal(t, 0, s.RobotHangupCount)

	assert.Equal(t, 2, s.NeutralCount)
	assert.Equal(t, 1, s.NegativeCount)
	// No LLM scores yet: the default midpoint.
	assert.Equal(t, 0.5, s.AvgSentimentScore)

	assert.Equal(t, 1, s.MediumComplaintRisk)
	assert.Equal(t, 2, s.LowComplaintRisk)
	assert.Equal(t, 1, s.UnsatisfiedCount)
	assert.Equal(t, 1, s.RiskMediumCount)
	assert.Equal(t, 2, s.RiskNoneCount)

	// Reconciled finals.
	assert.Equal(t, rules.SatisfactionUnsatisfied, s.FinalSatisfaction)
	assert.Equal(t, rules.EmotionNegative, s.FinalEmotion)
	assert.Equal(t, rules.RiskMedium, s.FinalComplaintRisk)
	assert.Equal(t, rules.RiskLow, s.FinalChurnRisk)
	assert.Equal(t, rules.RiskLevelMedium, s.FinalRiskLevel)
	// Average billed duration (40+0+80)/3 = 40s, rounds 10/3 = 3.
	assert.Equal(t, rules.WillingnessNormal, s.FinalWillingness)
}

func TestComputePeriodIsIdempotent(t *testing.T) {
	outcome := rules.Outcome{
		Satisfaction: rules.SatisfactionSatisfied, SatisfactionSource: rules.SourceASRTag,
		Emotion: rules.EmotionPositive, ComplaintRisk: rules.RiskLow, ChurnRisk: rules.RiskLow,
		Willingness: rules.WillingnessDeep, RiskLevel: rules.RiskLevelNone,
	}
	store := newFakeStore(
		call("c1", "t1", 5, 90000, 7, outcome),
		call("c2", "t1", 6, 30000, 3, outcome),
	)
	agg := NewAggregator(store, 1) // batch size 1 to exercise batching

	_, _, err := agg.ComputePeriod(context.Background(), "month", "2025-11")
	require.NoError(t, err)
	first := *store.snapshots["c1/t1/month/2025-11"]

	_, _, err = agg.ComputePeriod(context.Background(), "month", "2025-11")
	require.NoError(t, err)
	second := *store.snapshots["c1/t1/month/2025-11"]

	// The replaced row is identical apart from computed_at; the stored id
	// survives the upsert.
	assert.Equal(t, first.ID, second.ID)
	first.ComputedAt = time.Time{}
	second.ComputedAt = time.Time{}
	assert.Equal(t, first, second)
}

func TestComputeTaskSummaryRates(t *testing.T) {
	good := rules.Outcome{
		Satisfaction: rules.SatisfactionSatisfied, SatisfactionSource: rules.SourceScore,
		Emotion: rules.EmotionPositive, ComplaintRisk: rules.RiskLow, ChurnRisk: rules.RiskLow,
		Willingness: rules.WillingnessDeep, RiskLevel: rules.RiskLevelNone,
	}
	churning := rules.Outcome{
		Satisfaction: rules.SatisfactionUnsatisfied, SatisfactionSource: rules.SourceKeyword,
		Emotion: rules.EmotionNegative, ComplaintRisk: rules.RiskLow, ChurnRisk: rules.RiskHigh,
		Willingness: rules.WillingnessLow, RiskLevel: rules.RiskLevelChurn,
	}
	store := newFakeStore(
		call("c1", "t1", 3, 90000, 7, good),
		call("c2", "t1", 4, 10000, 1, churning),
		call("c3", "t2", 5, 30000, 3, good),
	)
	agg := NewAggregator(store, 100)

	customers, records, err := agg.ComputePeriod(context.Background(), "month", "2025-11")
	require.NoError(t, err)
	assert.Equal(t, 3, customers)
	assert.Equal(t, 3, records)

	sum := store.summaries["t1/month/2025-11"]
	require.NotNil(t, sum)
	assert.Equal(t, 2, sum.TotalCustomers)
	assert.Equal(t, 2, sum.TotalCalls)
	assert.Equal(t, 1, sum.SatisfiedCount)
	assert.Equal(t, 1, sum.UnsatisfiedCount)
	assert.InDelta(t, 0.5, sum.SatisfiedRate, 0.0001)
	assert.InDelta(t, 0.5, sum.PositiveRate, 0.0001)
	assert.Equal(t, 1, sum.HighChurnCustomers)
	assert.InDelta(t, 0.5, sum.HighChurnRate, 0.0001)
	assert.InDelta(t, 0.5, sum.HighRiskRate, 0.0001)
	assert.Equal(t, 1, sum.DeepWillingnessCount)
	assert.InDelta(t, 0.5, sum.DeepWillingnessRate, 0.0001)
	assert.Equal(t, 1, sum.NoRiskCustomers)

	other := store.summaries["t2/month/2025-11"]
	require.NotNil(t, other)
	assert.Equal(t, 1, other.TotalCustomers)
	assert.InDelta(t, 1.0, other.SatisfiedRate, 0.0001)
	assert.Zero(t, other.HighChurnCustomers)
}

func TestComputePeriodInvalidKey(t *testing.T) {
	store := newFakeStore()
	agg := NewAggregator(store, 100)

	_, _, err := agg.ComputePeriod(context.Background(), "month", "2025-13")
	assert.Error(t, err)
}

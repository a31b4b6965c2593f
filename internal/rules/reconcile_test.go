package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(day int) time.Time {
	return time.Date(2025, time.November, day, 0, 0, 0, 0, time.UTC)
}

func TestReconcileEmpty(t *testing.T) {
	out := Reconcile(nil)
	assert.Equal(t, SatisfactionNone, out.Satisfaction)
	assert.Equal(t, SourceNone, out.SatisfactionSource)
	assert.Equal(t, EmotionNeutral, out.Emotion)
	assert.Equal(t, RiskLow, out.ComplaintRisk)
	assert.Equal(t, RiskLow, out.ChurnRisk)
	assert.Equal(t, WillingnessNormal, out.Willingness)
	assert.Equal(t, RiskLevelNone, out.RiskLevel)
}

func TestReconcileSatisfactionRecencyWins(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Satisfaction: SatisfactionUnsatisfied, SatisfactionSource: SourceKeyword, Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(20), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Satisfaction: SatisfactionSatisfied, SatisfactionSource: SourceASRTag, Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(25), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Satisfaction: SatisfactionNone, Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(28), DurationSeconds: 30, Rounds: 3},
	}

	// Input order must not matter: the latest call WITH a verdict wins,
	// and verdict-less later calls are skipped.
	for _, perm := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
		shuffled := make([]CallResult, len(calls))
		for i, idx := range perm {
			shuffled[i] = calls[idx]
		}
		out := Reconcile(shuffled)
		assert.Equal(t, SatisfactionSatisfied, out.Satisfaction)
		assert.Equal(t, SourceASRTag, out.SatisfactionSource)
	}
}

func TestReconcileSameDayTieKeepsArrivalOrder(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Satisfaction: SatisfactionNeutral, SatisfactionSource: SourceKeyword, Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(10), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Satisfaction: SatisfactionSatisfied, SatisfactionSource: SourceScore, Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(10), DurationSeconds: 30, Rounds: 3},
	}
	out := Reconcile(calls)
	assert.Equal(t, SatisfactionSatisfied, out.Satisfaction)
	assert.Equal(t, SourceScore, out.SatisfactionSource)
}

func TestReconcileEmotionNegativeWins(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionPositive, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(1), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionNegative, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(2), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionPositive, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(3), DurationSeconds: 30, Rounds: 3},
	}
	out := Reconcile(calls)
	assert.Equal(t, EmotionNegative, out.Emotion)

	calls[1].Outcome.Emotion = EmotionNeutral
	out = Reconcile(calls)
	assert.Equal(t, EmotionPositive, out.Emotion)
}

func TestReconcileRiskMaxWins(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskHigh, ChurnRisk: RiskLow}, CallDate: at(1), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskMedium}, CallDate: at(2), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(3), DurationSeconds: 30, Rounds: 3},
	}
	out := Reconcile(calls)
	assert.Equal(t, RiskHigh, out.ComplaintRisk)
	assert.Equal(t, RiskMedium, out.ChurnRisk)
	// Composite derived once from the final pair.
	assert.Equal(t, RiskLevelComplaint, out.RiskLevel)
}

func TestReconcileCompositeChurnPrecedence(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskHigh, ChurnRisk: RiskLow}, CallDate: at(1), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskHigh}, CallDate: at(2), DurationSeconds: 30, Rounds: 3},
	}
	out := Reconcile(calls)
	assert.Equal(t, RiskLevelChurn, out.RiskLevel)
}

func TestReconcileWillingnessFromAverages(t *testing.T) {
	// Individual calls are normal (45s) and deep (90s); the 67s average is deep.
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow, Willingness: WillingnessNormal}, CallDate: at(1), DurationSeconds: 45, Rounds: 4},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow, Willingness: WillingnessDeep}, CallDate: at(2), DurationSeconds: 90, Rounds: 4},
	}
	out := Reconcile(calls)
	assert.Equal(t, WillingnessDeep, out.Willingness)
}

func TestReconcileWillingnessAverageTruncates(t *testing.T) {
	// 61+60 = 121, average 60.5 truncates to 60, which is not > 60.
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(1), DurationSeconds: 61, Rounds: 4},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(2), DurationSeconds: 60, Rounds: 4},
	}
	out := Reconcile(calls)
	assert.Equal(t, WillingnessNormal, out.Willingness)
}

func TestReconcileSingleCallPassesThrough(t *testing.T) {
	single := CallResult{
		Outcome: Outcome{
			Satisfaction:       SatisfactionNeutral,
			SatisfactionSource: SourceScore,
			Emotion:            EmotionNegative,
			ComplaintRisk:      RiskMedium,
			ChurnRisk:          RiskLow,
			Willingness:        WillingnessLow,
			RiskLevel:          RiskLevelMedium,
		},
		CallDate:        at(5),
		DurationSeconds: 10,
		Rounds:          1,
	}
	out := Reconcile([]CallResult{single})
	assert.Equal(t, single.Outcome, out)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	calls := []CallResult{
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(9), DurationSeconds: 30, Rounds: 3},
		{Outcome: Outcome{Emotion: EmotionNeutral, ComplaintRisk: RiskLow, ChurnRisk: RiskLow}, CallDate: at(3), DurationSeconds: 30, Rounds: 3},
	}
	Reconcile(calls)
	assert.Equal(t, at(9), calls[0].CallDate)
	assert.Equal(t, at(3), calls[1].CallDate)
}

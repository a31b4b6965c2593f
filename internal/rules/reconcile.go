package rules

import (
	"sort"
	"time"
)

// CallResult pairs one call's classification with the numeric facts the
// reconciler needs.
type CallResult struct {
	Outcome         Outcome
	CallDate        time.Time
	DurationSeconds int
	Rounds          int
}

var riskRank = map[string]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
}

// Reconcile combines all per-call outcomes for one (customer, task) group
// within a period into one representative outcome. Each field follows its
// own aggregation rule and must stay independent of the others:
//
//   - satisfaction: most recent call with a satisfaction verdict
//   - emotion: any negative wins, then any positive, else neutral
//   - complaint/churn risk: maximum severity observed
//   - willingness: thresholds re-applied to averaged duration and rounds
//   - composite risk: derived once from the final risk pair
func Reconcile(calls []CallResult) Outcome {
	if len(calls) == 0 {
		return Outcome{
			Emotion:       EmotionNeutral,
			ComplaintRisk: RiskLow,
			ChurnRisk:     RiskLow,
			Willingness:   WillingnessNormal,
			RiskLevel:     RiskLevelNone,
		}
	}

	ordered := make([]CallResult, len(calls))
	copy(ordered, calls)
	// Stable keeps arrival order for same-day ties.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CallDate.Before(ordered[j].CallDate)
	})

	var out Outcome

	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].Outcome.Satisfaction != SatisfactionNone {
			out.Satisfaction = ordered[i].Outcome.Satisfaction
			out.SatisfactionSource = ordered[i].Outcome.SatisfactionSource
			break
		}
	}

	out.Emotion = EmotionNeutral
	hasPositive := false
	for _, c := range ordered {
		if c.Outcome.Emotion == EmotionNegative {
			out.Emotion = EmotionNegative
			break
		}
		if c.Outcome.Emotion == EmotionPositive {
			hasPositive = true
		}
	}
	if out.Emotion != EmotionNegative && hasPositive {
		out.Emotion = EmotionPositive
	}

	out.ComplaintRisk = RiskLow
	out.ChurnRisk = RiskLow
	totalDuration := 0
	totalRounds := 0
	for _, c := range ordered {
		if riskRank[c.Outcome.ComplaintRisk] > riskRank[out.ComplaintRisk] {
			out.ComplaintRisk = c.Outcome.ComplaintRisk
		}
		if riskRank[c.Outcome.ChurnRisk] > riskRank[out.ChurnRisk] {
			out.ChurnRisk = c.Outcome.ChurnRisk
		}
		totalDuration += c.DurationSeconds
		totalRounds += c.Rounds
	}

	// Averages truncate toward zero before the threshold comparison.
	avgDuration := totalDuration / len(ordered)
	avgRounds := totalRounds / len(ordered)
	out.Willingness = ClassifyWillingness(avgDuration, avgRounds)

	out.RiskLevel = CompositeRiskLevel(out.ComplaintRisk, out.ChurnRisk)

	return out
}

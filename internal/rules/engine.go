package rules

import (
	"regexp"
	"strings"
)

// Satisfaction values. An empty string means no rule matched.
const (
	SatisfactionSatisfied   = "satisfied"
	SatisfactionNeutral     = "neutral"
	SatisfactionUnsatisfied = "unsatisfied"
	SatisfactionNone        = ""
)

// Satisfaction sources.
const (
	SourceASRTag  = "asr_tag"
	SourceScore   = "score"
	SourceKeyword = "keyword"
	SourceNone    = ""
)

// Emotion values.
const (
	EmotionPositive = "positive"
	EmotionNeutral  = "neutral"
	EmotionNegative = "negative"
)

// Risk severity values.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Willingness values.
const (
	WillingnessDeep   = "deep"
	WillingnessNormal = "normal"
	WillingnessLow    = "low"
)

// Composite risk levels.
const (
	RiskLevelChurn     = "churn"
	RiskLevelComplaint = "complaint"
	RiskLevelMedium    = "medium"
	RiskLevelNone      = "none"
)

// Willingness and escalation thresholds.
const (
	deepDurationSeconds = 60
	deepRounds          = 5
	lowDurationSeconds  = 20
	lowRounds           = 3
	mediumEscalation    = 3
)

// Outcome is the classification tuple for a single call. Every field is
// always populated; Satisfaction/SatisfactionSource stay empty only when
// no satisfaction rule matched.
type Outcome struct {
	Satisfaction       string
	SatisfactionSource string
	Emotion            string
	ComplaintRisk      string
	ChurnRisk          string
	Willingness        string
	RiskLevel          string
}

// Engine is the deterministic rule classifier. It holds only precompiled
// match tables and is safe for unrestricted concurrent use.
type Engine struct {
	scoreRegexps []scoreRegexpGroup
}

type scoreRegexpGroup struct {
	satisfaction string
	regexps      []*regexp.Regexp
}

func NewEngine() *Engine {
	e := &Engine{}
	for _, group := range scorePatterns {
		compiled := scoreRegexpGroup{satisfaction: group.satisfaction}
		for _, p := range group.patterns {
			compiled.regexps = append(compiled.regexps, regexp.MustCompile(p))
		}
		e.scoreRegexps = append(e.scoreRegexps, compiled)
	}
	return e
}

// Classify maps one call's transcript and numeric metadata to an Outcome.
// It never fails: empty text yields the safe defaults (no satisfaction,
// neutral emotion, low risks, willingness from the numeric fields alone).
func (e *Engine) Classify(text string, asrLabels []string, durationSeconds, rounds int) Outcome {
	var out Outcome
	out.Satisfaction, out.SatisfactionSource = e.classifySatisfaction(text, asrLabels)
	out.Emotion = e.classifyEmotion(text)
	out.ComplaintRisk = classifyTieredRisk(text, complaintHighKeywords, complaintMediumKeywords)
	out.ChurnRisk = classifyTieredRisk(text, churnHighKeywords, churnMediumKeywords)
	out.Willingness = ClassifyWillingness(durationSeconds, rounds)
	out.RiskLevel = CompositeRiskLevel(out.ComplaintRisk, out.ChurnRisk)
	return out
}

// classifySatisfaction applies the three satisfaction rules in priority
// order: ASR tag match, self-reported score, keyword fallback.
func (e *Engine) classifySatisfaction(text string, asrLabels []string) (string, string) {
	for _, label := range asrLabels {
		labelLower := strings.ToLower(label)
		if labelLower == "" {
			continue
		}
		for _, group := range satisfactionASRTags {
			for _, tag := range group.tags {
				tagLower := strings.ToLower(tag)
				if strings.Contains(labelLower, tagLower) || strings.Contains(tagLower, labelLower) {
					return group.satisfaction, SourceASRTag
				}
			}
		}
	}

	if text == "" {
		return SatisfactionNone, SourceNone
	}

	for _, group := range e.scoreRegexps {
		for _, re := range group.regexps {
			if re.MatchString(text) {
				return group.satisfaction, SourceScore
			}
		}
	}

	// Unsatisfied first: "不满意" contains "满意".
	for _, kw := range satisfactionUnsatisfiedKeywords {
		if strings.Contains(text, kw) {
			return SatisfactionUnsatisfied, SourceKeyword
		}
	}
	for _, kw := range satisfactionSatisfiedKeywords {
		if strings.Contains(text, kw) {
			return SatisfactionSatisfied, SourceKeyword
		}
	}
	for _, kw := range satisfactionNeutralKeywords {
		if strings.Contains(text, kw) {
			return SatisfactionNeutral, SourceKeyword
		}
	}

	return SatisfactionNone, SourceNone
}

// classifyEmotion counts positive and negative keyword hits. A single
// negative hit outweighs any number of positive hits.
func (e *Engine) classifyEmotion(text string) string {
	if text == "" {
		return EmotionNeutral
	}

	positive := 0
	negative := 0
	for _, kw := range emotionPositiveKeywords {
		if strings.Contains(text, kw) {
			positive++
		}
	}
	for _, kw := range emotionNegativeKeywords {
		if strings.Contains(text, kw) {
			negative++
		}
	}

	if negative > 0 {
		return EmotionNegative
	}
	if positive > 0 {
		return EmotionPositive
	}
	return EmotionNeutral
}

// classifyTieredRisk applies the two-tier dictionaries: any high-tier hit
// is high; mediumEscalation or more medium-tier hits escalate to high.
func classifyTieredRisk(text string, high, medium []string) string {
	if text == "" {
		return RiskLow
	}

	for _, kw := range high {
		if strings.Contains(text, kw) {
			return RiskHigh
		}
	}

	mediumCount := 0
	for _, kw := range medium {
		if strings.Contains(text, kw) {
			mediumCount++
		}
	}
	if mediumCount >= mediumEscalation {
		return RiskHigh
	}
	if mediumCount >= 1 {
		return RiskMedium
	}
	return RiskLow
}

// ClassifyWillingness derives engagement depth from talk time and
// interaction rounds alone.
func ClassifyWillingness(durationSeconds, rounds int) string {
	if durationSeconds > deepDurationSeconds || rounds > deepRounds {
		return WillingnessDeep
	}
	if durationSeconds < lowDurationSeconds && rounds < lowRounds {
		return WillingnessLow
	}
	return WillingnessNormal
}

// CompositeRiskLevel collapses the complaint/churn pair into one reporting
// category. Churn-high outranks complaint-high; any medium maps to medium.
func CompositeRiskLevel(complaintRisk, churnRisk string) string {
	if churnRisk == RiskHigh {
		return RiskLevelChurn
	}
	if complaintRisk == RiskHigh {
		return RiskLevelComplaint
	}
	if complaintRisk == RiskMedium || churnRisk == RiskMedium {
		return RiskLevelMedium
	}
	return RiskLevelNone
}

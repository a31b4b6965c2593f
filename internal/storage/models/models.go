package models

import "time"

// Period state lifecycle values.
const (
	PeriodStatusPending   = "pending"
	PeriodStatusComputing = "computing"
	PeriodStatusCompleted = "completed"
	PeriodStatusFailed    = "failed"
)

// CallRecord is an enriched call fact synced from the autodialer source
// database, with rule-classified outcome fields attached. The raw columns
// are immutable facts; the classification columns are written once when a
// transcript becomes available.
type CallRecord struct {
	ID             string    `json:"id"`
	CallID         string    `json:"call_id"`
	TaskID         string    `json:"task_id"`
	CustomerID     string    `json:"customer_id"`
	Phone          string    `json:"phone"`
	CallDate       time.Time `json:"call_date"`
	DurationMS     int       `json:"duration_ms"`
	BillMS         int       `json:"bill_ms"`
	Rounds         int       `json:"rounds"`
	IntentionLevel string    `json:"intention_level"`
	HangupBy       int       `json:"hangup_by"`
	CallStatus     string    `json:"call_status"`
	Transcript     string    `json:"transcript"`
	ASRLabels      []string  `json:"asr_labels"`

	Satisfaction       string     `json:"satisfaction"`
	SatisfactionSource string     `json:"satisfaction_source"`
	Emotion            string     `json:"emotion"`
	SentimentScore     *float64   `json:"sentiment_score,omitempty"`
	ComplaintRisk      string     `json:"complaint_risk"`
	ChurnRisk          string     `json:"churn_risk"`
	Willingness        string     `json:"willingness"`
	RiskLevel          string     `json:"risk_level"`
	AnalyzedAt         *time.Time `json:"analyzed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connected reports whether the call was billed, i.e. actually answered.
func (r *CallRecord) Connected() bool {
	return r.BillMS > 0
}

// CustomerPeriodSnapshot is the per (customer, task, period) aggregate row.
// Rows are always fully replaced on recompute; computed_at is the only
// column expected to differ between identical runs.
type CustomerPeriodSnapshot struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Phone       string    `json:"phone"`
	TaskID      string    `json:"task_id"`
	PeriodType  string    `json:"period_type"`
	PeriodKey   string    `json:"period_key"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalCalls     int     `json:"total_calls"`
	ConnectedCalls int     `json:"connected_calls"`
	ConnectRate    float64 `json:"connect_rate"`
	TotalDuration  int     `json:"total_duration"`
	AvgDuration    float64 `json:"avg_duration"`
	MaxDuration    int     `json:"max_duration"`
	MinDuration    int     `json:"min_duration"`
	TotalRounds    int     `json:"total_rounds"`
	AvgRounds      float64 `json:"avg_rounds"`

	LevelACount int `json:"level_a_count"`
	LevelBCount int `json:"level_b_count"`
	LevelCCount int `json:"level_c_count"`
	LevelDCount int `json:"level_d_count"`
	LevelECount int `json:"level_e_count"`
	LevelFCount int `json:"level_f_count"`

	RobotHangupCount    int `json:"robot_hangup_count"`
	CustomerHangupCount int `json:"customer_hangup_count"`

	PositiveCount     int     `json:"positive_count"`
	NeutralCount      int     `json:"neutral_count"`
	NegativeCount     int     `json:"negative_count"`
	AvgSentimentScore float64 `json:"avg_sentiment_score"`

	HighComplaintRisk   int `json:"high_complaint_risk"`
	MediumComplaintRisk int `json:"medium_complaint_risk"`
	LowComplaintRisk    int `json:"low_complaint_risk"`
	HighChurnRisk       int `json:"high_churn_risk"`
	MediumChurnRisk     int `json:"medium_churn_risk"`
	LowChurnRisk        int `json:"low_churn_risk"`

	SatisfiedCount           int `json:"satisfied_count"`
	NeutralSatisfactionCount int `json:"neutral_satisfaction_count"`
	UnsatisfiedCount         int `json:"unsatisfied_count"`

	WillingnessDeepCount   int `json:"willingness_deep_count"`
	WillingnessNormalCount int `json:"willingness_normal_count"`
	WillingnessLowCount    int `json:"willingness_low_count"`

	RiskChurnCount     int `json:"risk_churn_count"`
	RiskComplaintCount int `json:"risk_complaint_count"`
	RiskMediumCount    int `json:"risk_medium_count"`
	RiskNoneCount      int `json:"risk_none_count"`

	FinalSatisfaction  string `json:"final_satisfaction"`
	FinalEmotion       string `json:"final_emotion"`
	FinalComplaintRisk string `json:"final_complaint_risk"`
	FinalChurnRisk     string `json:"final_churn_risk"`
	FinalWillingness   string `json:"final_willingness"`
	FinalRiskLevel     string `json:"final_risk_level"`

	ComputedAt time.Time `json:"computed_at"`
}

// TaskPeriodSummary aggregates customer snapshots per (task, period).
type TaskPeriodSummary struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	TaskName    string    `json:"task_name"`
	PeriodType  string    `json:"period_type"`
	PeriodKey   string    `json:"period_key"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalCustomers int     `json:"total_customers"`
	TotalCalls     int     `json:"total_calls"`
	ConnectedCalls int     `json:"connected_calls"`
	ConnectRate    float64 `json:"connect_rate"`
	AvgDuration    float64 `json:"avg_duration"`

	SatisfiedCount           int     `json:"satisfied_count"`
	SatisfiedRate            float64 `json:"satisfied_rate"`
	NeutralSatisfactionCount int     `json:"neutral_satisfaction_count"`
	UnsatisfiedCount         int     `json:"unsatisfied_count"`

	PositiveCount       int     `json:"positive_count"`
	NeutralEmotionCount int     `json:"neutral_emotion_count"`
	NegativeCount       int     `json:"negative_count"`
	PositiveRate        float64 `json:"positive_rate"`
	AvgSentimentScore   float64 `json:"avg_sentiment_score"`

	HighComplaintCustomers int     `json:"high_complaint_customers"`
	HighComplaintRate      float64 `json:"high_complaint_rate"`
	HighChurnCustomers     int     `json:"high_churn_customers"`
	HighChurnRate          float64 `json:"high_churn_rate"`
	MediumRiskCustomers    int     `json:"medium_risk_customers"`
	NoRiskCustomers        int     `json:"no_risk_customers"`
	HighRiskRate           float64 `json:"high_risk_rate"`

	DeepWillingnessCount   int     `json:"deep_willingness_count"`
	NormalWillingnessCount int     `json:"normal_willingness_count"`
	LowWillingnessCount    int     `json:"low_willingness_count"`
	DeepWillingnessRate    float64 `json:"deep_willingness_rate"`

	ComputedAt time.Time `json:"computed_at"`
}

// PeriodState tracks the compute lifecycle of one (period_type, period_key).
type PeriodState struct {
	ID             string     `json:"id"`
	PeriodType     string     `json:"period_type"`
	PeriodKey      string     `json:"period_key"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	Status         string     `json:"status"`
	TotalCustomers int        `json:"total_customers"`
	TotalRecords   int        `json:"total_records"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ComputedAt     *time.Time `json:"computed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/storage/models"
	"github.com/callportrait/backend/pkg/logger"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Client is the raw SQL storage layer for call records, period snapshots
// and period state. It speaks both sqlite3 (default, single-node) and
// mysql; the dialect only changes DDL types and upsert syntax.
type Client struct {
	db     *sql.DB
	driver string
}

func NewClient(driver, dsn string) (*Client, error) {
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		// sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent compute and sync.
		db.SetMaxOpenConns(1)
	}

	logger.Info("storage client initialized", zap.String("driver", driver))

	return &Client{db: db, driver: driver}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := sqliteSchema
	if c.driver == DriverMySQL {
		schema = mysqlSchema
	}
	for _, stmt := range strings.Split(schema, ";\n\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	logger.Info("storage schema initialized")
	return nil
}

// upsertSuffix renders the dialect-specific conflict clause that makes an
// INSERT fully replace the existing row.
func (c *Client) upsertSuffix(conflictCols []string, updateCols []string) string {
	var b strings.Builder
	if c.driver == DriverMySQL {
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
		for i, col := range updateCols {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s = VALUES(%s)", col, col)
		}
		return b.String()
	}
	fmt.Fprintf(&b, " ON CONFLICT(%s) DO UPDATE SET ", strings.Join(conflictCols, ", "))
	for i, col := range updateCols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = excluded.%s", col, col)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var callRecordColumns = []string{
	"id", "call_id", "task_id", "customer_id", "phone", "call_date",
	"duration_ms", "bill_ms", "rounds", "intention_level", "hangup_by",
	"call_status", "transcript", "asr_labels",
	"satisfaction", "satisfaction_source", "emotion", "sentiment_score",
	"complaint_risk", "churn_risk", "willingness", "risk_level", "analyzed_at",
	"created_at", "updated_at",
}

// UpsertCallRecords writes one batch of call records in a single
// transaction, keyed on the external call id. Existing rows are fully
// replaced except for created_at.
func (c *Client) UpsertCallRecords(ctx context.Context, records []*models.CallRecord) error {
	if len(records) == 0 {
		return nil
	}

	updateCols := updatableColumns(callRecordColumns, []string{"call_id"}, "id", "created_at")
	query := fmt.Sprintf(
		"INSERT INTO call_records (%s) VALUES (%s)%s",
		strings.Join(callRecordColumns, ", "),
		placeholders(len(callRecordColumns)),
		c.upsertSuffix([]string{"call_id"}, updateCols),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		labels, err := json.Marshal(r.ASRLabels)
		if err != nil {
			return fmt.Errorf("failed to encode asr labels: %w", err)
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.CallID, r.TaskID, r.CustomerID, r.Phone, r.CallDate.Unix(),
			r.DurationMS, r.BillMS, r.Rounds, r.IntentionLevel, r.HangupBy,
			r.CallStatus, r.Transcript, string(labels),
			r.Satisfaction, r.SatisfactionSource, r.Emotion, nullFloat(r.SentimentScore),
			r.ComplaintRisk, r.ChurnRisk, r.Willingness, r.RiskLevel, nullTime(r.AnalyzedAt),
			createdAt.Unix(), now.Unix(),
		); err != nil {
			return fmt.Errorf("failed to upsert call record %s: %w", r.CallID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit call records: %w", err)
	}

	logger.Debug("call records upserted", zap.Int("count", len(records)))
	return nil
}

func scanCallRecord(rows *sql.Rows) (*models.CallRecord, error) {
	var (
		r          models.CallRecord
		callDate   int64
		labels     string
		sentiment  sql.NullFloat64
		analyzedAt sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	if err := rows.Scan(
		&r.ID, &r.CallID, &r.TaskID, &r.CustomerID, &r.Phone, &callDate,
		&r.DurationMS, &r.BillMS, &r.Rounds, &r.IntentionLevel, &r.HangupBy,
		&r.CallStatus, &r.Transcript, &labels,
		&r.Satisfaction, &r.SatisfactionSource, &r.Emotion, &sentiment,
		&r.ComplaintRisk, &r.ChurnRisk, &r.Willingness, &r.RiskLevel, &analyzedAt,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.CallDate = time.Unix(callDate, 0).UTC()
	if labels != "" {
		if err := json.Unmarshal([]byte(labels), &r.ASRLabels); err != nil {
			return nil, fmt.Errorf("failed to decode asr labels for %s: %w", r.CallID, err)
		}
	}
	if sentiment.Valid {
		r.SentimentScore = &sentiment.Float64
	}
	if analyzedAt.Valid {
		t := time.Unix(analyzedAt.Int64, 0).UTC()
		r.AnalyzedAt = &t
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &r, nil
}

func (c *Client) queryCallRecords(ctx context.Context, query string, args ...any) ([]*models.CallRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	var records []*models.CallRecord
	for rows.Next() {
		r, err := scanCallRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListCallsInRange returns all calls whose call_date falls inside the
// inclusive [start, end] date range, oldest first.
func (c *Client) ListCallsInRange(ctx context.Context, start, end time.Time) ([]*models.CallRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE call_date >= ? AND call_date < ? ORDER BY call_date, id",
		strings.Join(callRecordColumns, ", "),
	)
	return c.queryCallRecords(ctx, query, start.Unix(), end.AddDate(0, 0, 1).Unix())
}

// ListUnanalyzed returns calls with a transcript but no LLM sentiment yet.
func (c *Client) ListUnanalyzed(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE analyzed_at IS NULL AND transcript != '' ORDER BY call_date LIMIT ?",
		strings.Join(callRecordColumns, ", "),
	)
	return c.queryCallRecords(ctx, query, limit)
}

// UpdateCallSentiment stores the LLM sentiment score and stamps the record
// analyzed.
func (c *Client) UpdateCallSentiment(ctx context.Context, callID string, score float64, emotion string, analyzedAt time.Time) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE call_records SET sentiment_score = ?, emotion = ?, analyzed_at = ?, updated_at = ? WHERE call_id = ?",
		score, emotion, analyzedAt.Unix(), time.Now().Unix(), callID,
	)
	if err != nil {
		return fmt.Errorf("failed to update call sentiment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("call record not found: %s", callID)
	}
	return nil
}

var snapshotColumns = []string{
	"id", "customer_id", "phone", "task_id", "period_type", "period_key",
	"period_start", "period_end",
	"total_calls", "connected_calls", "connect_rate",
	"total_duration", "avg_duration", "max_duration", "min_duration",
	"total_rounds", "avg_rounds",
	"level_a_count", "level_b_count", "level_c_count",
	"level_d_count", "level_e_count", "level_f_count",
	"robot_hangup_count", "customer_hangup_count",
	"positive_count", "neutral_count", "negative_count", "avg_sentiment_score",
	"high_complaint_risk", "medium_complaint_risk", "low_complaint_risk",
	"high_churn_risk", "medium_churn_risk", "low_churn_risk",
	"satisfied_count", "neutral_satisfaction_count", "unsatisfied_count",
	"willingness_deep_count", "willingness_normal_count", "willingness_low_count",
	"risk_churn_count", "risk_complaint_count", "risk_medium_count", "risk_none_count",
	"final_satisfaction", "final_emotion", "final_complaint_risk",
	"final_churn_risk", "final_willingness", "final_risk_level",
	"computed_at",
}

var snapshotKey = []string{"customer_id", "task_id", "period_type", "period_key"}

func snapshotArgs(s *models.CustomerPeriodSnapshot) []any {
	return []any{
		s.ID, s.CustomerID, s.Phone, s.TaskID, s.PeriodType, s.PeriodKey,
		s.PeriodStart.Unix(), s.PeriodEnd.Unix(),
		s.TotalCalls, s.ConnectedCalls, s.ConnectRate,
		s.TotalDuration, s.AvgDuration, s.MaxDuration, s.MinDuration,
		s.TotalRounds, s.AvgRounds,
		s.LevelACount, s.LevelBCount, s.LevelCCount,
		s.LevelDCount, s.LevelECount, s.LevelFCount,
		s.RobotHangupCount, s.CustomerHangupCount,
		s.PositiveCount, s.NeutralCount, s.NegativeCount, s.AvgSentimentScore,
		s.HighComplaintRisk, s.MediumComplaintRisk, s.LowComplaintRisk,
		s.HighChurnRisk, s.MediumChurnRisk, s.LowChurnRisk,
		s.SatisfiedCount, s.NeutralSatisfactionCount, s.UnsatisfiedCount,
		s.WillingnessDeepCount, s.WillingnessNormalCount, s.WillingnessLowCount,
		s.RiskChurnCount, s.RiskComplaintCount, s.RiskMediumCount, s.RiskNoneCount,
		s.FinalSatisfaction, s.FinalEmotion, s.FinalComplaintRisk,
		s.FinalChurnRisk, s.FinalWillingness, s.FinalRiskLevel,
		s.ComputedAt.Unix(),
	}
}

func scanSnapshot(rows *sql.Rows) (*models.CustomerPeriodSnapshot, error) {
	var (
		s           models.CustomerPeriodSnapshot
		periodStart int64
		periodEnd   int64
		computedAt  int64
	)
	if err := rows.Scan(
		&s.ID, &s.CustomerID, &s.Phone, &s.TaskID, &s.PeriodType, &s.PeriodKey,
		&periodStart, &periodEnd,
		&s.TotalCalls, &s.ConnectedCalls, &s.ConnectRate,
		&s.TotalDuration, &s.AvgDuration, &s.MaxDuration, &s.MinDuration,
		&s.TotalRounds, &s.AvgRounds,
		&s.LevelACount, &s.LevelBCount, &s.LevelCCount,
		&s.LevelDCount, &s.LevelECount, &s.LevelFCount,
		&s.RobotHangupCount, &s.CustomerHangupCount,
		&s.PositiveCount, &s.NeutralCount, &s.NegativeCount, &s.AvgSentimentScore,
		&s.HighComplaintRisk, &s.MediumComplaintRisk, &s.LowComplaintRisk,
		&s.HighChurnRisk, &s.MediumChurnRisk, &s.LowChurnRisk,
		&s.SatisfiedCount, &s.NeutralSatisfactionCount, &s.UnsatisfiedCount,
		&s.WillingnessDeepCount, &s.WillingnessNormalCount, &s.WillingnessLowCount,
		&s.RiskChurnCount, &s.RiskComplaintCount, &s.RiskMediumCount, &s.RiskNoneCount,
		&s.FinalSatisfaction, &s.FinalEmotion, &s.FinalComplaintRisk,
		&s.FinalChurnRisk, &s.FinalWillingness, &s.FinalRiskLevel,
		&computedAt,
	); err != nil {
		return nil, err
	}
	s.PeriodStart = time.Unix(periodStart, 0).UTC()
	s.PeriodEnd = time.Unix(periodEnd, 0).UTC()
	s.ComputedAt = time.Unix(computedAt, 0).UTC()
	return &s, nil
}

// UpsertCustomerSnapshots fully replaces one batch of snapshot rows in a
// single transaction.
func (c *Client) UpsertCustomerSnapshots(ctx context.Context, snapshots []*models.CustomerPeriodSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	updateCols := updatableColumns(snapshotColumns, snapshotKey, "id")
	query := fmt.Sprintf(
		"INSERT INTO customer_period_snapshots (%s) VALUES (%s)%s",
		strings.Join(snapshotColumns, ", "),
		placeholders(len(snapshotColumns)),
		c.upsertSuffix(snapshotKey, updateCols),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		if _, err := stmt.ExecContext(ctx, snapshotArgs(s)...); err != nil {
			return fmt.Errorf("failed to upsert snapshot %s/%s/%s: %w", s.CustomerID, s.TaskID, s.PeriodKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

func (c *Client) querySnapshots(ctx context.Context, query string, args ...any) ([]*models.CustomerPeriodSnapshot, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.CustomerPeriodSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// GetCustomerSnapshot returns nil when no snapshot exists for the key.
func (c *Client) GetCustomerSnapshot(ctx context.Context, customerID, taskID, periodType, periodKey string) (*models.CustomerPeriodSnapshot, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM customer_period_snapshots WHERE customer_id = ? AND task_id = ? AND period_type = ? AND period_key = ?",
		strings.Join(snapshotColumns, ", "),
	)
	snapshots, err := c.querySnapshots(ctx, query, customerID, taskID, periodType, periodKey)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return snapshots[0], nil
}

// ListCustomerSnapshots returns a customer's snapshots of one period type
// across tasks and periods, newest period first.
func (c *Client) ListCustomerSnapshots(ctx context.Context, customerID, periodType string, limit int) ([]*models.CustomerPeriodSnapshot, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM customer_period_snapshots WHERE customer_id = ? AND period_type = ? ORDER BY period_key DESC, task_id LIMIT ?",
		strings.Join(snapshotColumns, ", "),
	)
	return c.querySnapshots(ctx, query, customerID, periodType, limit)
}

// ListSnapshotsByPeriod returns every snapshot of one period, ordered by
// task then customer. Used by the task-level rollup.
func (c *Client) ListSnapshotsByPeriod(ctx context.Context, periodType, periodKey string) ([]*models.CustomerPeriodSnapshot, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM customer_period_snapshots WHERE period_type = ? AND period_key = ? ORDER BY task_id, customer_id",
		strings.Join(snapshotColumns, ", "),
	)
	return c.querySnapshots(ctx, query, periodType, periodKey)
}

var summaryColumns = []string{
	"id", "task_id", "task_name", "period_type", "period_key",
	"period_start", "period_end",
	"total_customers", "total_calls", "connected_calls", "connect_rate", "avg_duration",
	"satisfied_count", "satisfied_rate", "neutral_satisfaction_count", "unsatisfied_count",
	"positive_count", "neutral_emotion_count", "negative_count", "positive_rate", "avg_sentiment_score",
	"high_complaint_customers", "high_complaint_rate",
	"high_churn_customers", "high_churn_rate",
	"medium_risk_customers", "no_risk_customers", "high_risk_rate",
	"deep_willingness_count", "normal_willingness_count", "low_willingness_count", "deep_willingness_rate",
	"computed_at",
}

var summaryKey = []string{"task_id", "period_type", "period_key"}

func summaryArgs(s *models.TaskPeriodSummary) []any {
	return []any{
		s.ID, s.TaskID, s.TaskName, s.PeriodType, s.PeriodKey,
		s.PeriodStart.Unix(), s.PeriodEnd.Unix(),
		s.TotalCustomers, s.TotalCalls, s.ConnectedCalls, s.ConnectRate, s.AvgDuration,
		s.SatisfiedCount, s.SatisfiedRate, s.NeutralSatisfactionCount, s.UnsatisfiedCount,
		s.PositiveCount, s.NeutralEmotionCount, s.NegativeCount, s.PositiveRate, s.AvgSentimentScore,
		s.HighComplaintCustomers, s.HighComplaintRate,
		s.HighChurnCustomers, s.HighChurnRate,
		s.MediumRiskCustomers, s.NoRiskCustomers, s.HighRiskRate,
		s.DeepWillingnessCount, s.NormalWillingnessCount, s.LowWillingnessCount, s.DeepWillingnessRate,
		s.ComputedAt.Unix(),
	}
}

func scanSummary(rows *sql.Rows) (*models.TaskPeriodSummary, error) {
	var (
		s           models.TaskPeriodSummary
		periodStart int64
		periodEnd   int64
		computedAt  int64
	)
	if err := rows.Scan(
		&s.ID, &s.TaskID, &s.TaskName, &s.PeriodType, &s.PeriodKey,
		&periodStart, &periodEnd,
		&s.TotalCustomers, &s.TotalCalls, &s.ConnectedCalls, &s.ConnectRate, &s.AvgDuration,
		&s.SatisfiedCount, &s.SatisfiedRate, &s.NeutralSatisfactionCount, &s.UnsatisfiedCount,
		&s.PositiveCount, &s.NeutralEmotionCount, &s.NegativeCount, &s.PositiveRate, &s.AvgSentimentScore,
		&s.HighComplaintCustomers, &s.HighComplaintRate,
		&s.HighChurnCustomers, &s.HighChurnRate,
		&s.MediumRiskCustomers, &s.NoRiskCustomers, &s.HighRiskRate,
		&s.DeepWillingnessCount, &s.NormalWillingnessCount, &s.LowWillingnessCount, &s.DeepWillingnessRate,
		&computedAt,
	); err != nil {
		return nil, err
	}
	s.PeriodStart = time.Unix(periodStart, 0).UTC()
	s.PeriodEnd = time.Unix(periodEnd, 0).UTC()
	s.ComputedAt = time.Unix(computedAt, 0).UTC()
	return &s, nil
}

// UpsertTaskSummaries fully replaces one batch of task summary rows.
func (c *Client) UpsertTaskSummaries(ctx context.Context, summaries []*models.TaskPeriodSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	updateCols := updatableColumns(summaryColumns, summaryKey, "id")
	query := fmt.Sprintf(
		"INSERT INTO task_period_summaries (%s) VALUES (%s)%s",
		strings.Join(summaryColumns, ", "),
		placeholders(len(summaryColumns)),
		c.upsertSuffix(summaryKey, updateCols),
	)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare summary upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		if _, err := stmt.ExecContext(ctx, summaryArgs(s)...); err != nil {
			return fmt.Errorf("failed to upsert summary %s/%s: %w", s.TaskID, s.PeriodKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit summaries: %w", err)
	}
	return nil
}

func (c *Client) querySummaries(ctx context.Context, query string, args ...any) ([]*models.TaskPeriodSummary, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.TaskPeriodSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetTaskSummary returns nil when the summary does not exist.
func (c *Client) GetTaskSummary(ctx context.Context, taskID, periodType, periodKey string) (*models.TaskPeriodSummary, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM task_period_summaries WHERE task_id = ? AND period_type = ? AND period_key = ?",
		strings.Join(summaryColumns, ", "),
	)
	summaries, err := c.querySummaries(ctx, query, taskID, periodType, periodKey)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return summaries[0], nil
}

// ListTaskSummariesByPeriod returns every task's summary for one period.
func (c *Client) ListTaskSummariesByPeriod(ctx context.Context, periodType, periodKey string) ([]*models.TaskPeriodSummary, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM task_period_summaries WHERE period_type = ? AND period_key = ? ORDER BY task_id",
		strings.Join(summaryColumns, ", "),
	)
	return c.querySummaries(ctx, query, periodType, periodKey)
}

// ListTaskSummaries returns one task's summaries over time, newest first.
func (c *Client) ListTaskSummaries(ctx context.Context, taskID, periodType string, limit int) ([]*models.TaskPeriodSummary, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM task_period_summaries WHERE task_id = ? AND period_type = ? ORDER BY period_key DESC LIMIT ?",
		strings.Join(summaryColumns, ", "),
	)
	return c.querySummaries(ctx, query, taskID, periodType, limit)
}

// updatableColumns filters the full column list down to the ones an upsert
// may overwrite.
func updatableColumns(all, conflictCols []string, skip ...string) []string {
	excluded := make(map[string]bool, len(conflictCols)+len(skip))
	for _, col := range conflictCols {
		excluded[col] = true
	}
	for _, col := range skip {
		excluded[col] = true
	}
	var cols []string
	for _, col := range all {
		if !excluded[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/callportrait/backend/pkg/logger"
)

// Client is a read-only reader over the autodialer MySQL database. Call
// records and ASR details live in monthly shards named by the task
// creation month (autodialer_call_record_2024_11 and so on).
type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	logger.Info("source database client initialized")

	return &Client{
		db:     db,
		logger: logger.GetLogger().With(zap.String("component", "source_db")),
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// RawRecord is one row of the sharded call record table, before any
// classification.
type RawRecord struct {
	SourceID        int64
	CallID          string
	TaskID          string
	CustomerID      string
	Phone           string
	CallDate        time.Time
	DurationMS      int
	BillMS          int
	Rounds          int
	LevelName       string
	IntentionResult string
	HangupBy        int
	CallStatus      string
}

func recordTable(t time.Time) string {
	return fmt.Sprintf("autodialer_call_record_%04d_%02d", t.Year(), int(t.Month()))
}

func detailTable(t time.Time) string {
	return fmt.Sprintf("autodialer_call_record_detail_%04d_%02d", t.Year(), int(t.Month()))
}

// missingTable matches MySQL error 1146 for a shard that was never created.
func missingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "doesn't exist")
}

// FetchRecords reads all call records of one calendar day from the shard
// that day falls into. A missing shard yields an empty result, not an
// error.
func (c *Client) FetchRecords(ctx context.Context, day time.Time) ([]*RawRecord, error) {
	table := recordTable(day)
	query := fmt.Sprintf(`SELECT
			cr.id,
			cr.callid,
			cr.task_id,
			cr.customer_id,
			COALESCE(cr.phone, ''),
			cr.calldate,
			COALESCE(cr.duration, 0),
			COALESCE(cr.bill, 0),
			COALESCE(cr.rounds, 0),
			COALESCE(cr.level_name, ''),
			COALESCE(cr.intention_results, ''),
			COALESCE(cr.hangup_disposition, 0)
		FROM %s cr
		WHERE DATE(cr.calldate) = ?`, table)

	rows, err := c.db.QueryContext(ctx, query, day.Format("2006-01-02"))
	if err != nil {
		if missingTable(err) {
			c.logger.Warn("source shard missing", zap.String("table", table))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var records []*RawRecord
	for rows.Next() {
		var (
			r        RawRecord
			callDate string
		)
		if err := rows.Scan(
			&r.SourceID, &r.CallID, &r.TaskID, &r.CustomerID, &r.Phone,
			&callDate, &r.DurationMS, &r.BillMS, &r.Rounds,
			&r.LevelName, &r.IntentionResult, &r.HangupBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		if r.CallDate, err = parseSourceTime(callDate); err != nil {
			return nil, fmt.Errorf("failed to parse calldate %q: %w", callDate, err)
		}
		// intention_results of "0" means unclassified.
		if r.IntentionResult == "0" {
			r.IntentionResult = ""
		}
		if r.BillMS > 0 {
			r.CallStatus = "connected"
		} else {
			r.CallStatus = "failed"
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// FetchTranscript assembles the ASR dialogue of one call into a single
// text, one line per utterance with a speaker prefix. shardDate selects
// the detail shard and is the task creation date of the call.
func (c *Client) FetchTranscript(ctx context.Context, callID string, shardDate time.Time) (string, error) {
	table := detailTable(shardDate)
	query := fmt.Sprintf(`SELECT
			COALESCE(question, ''),
			COALESCE(answer_text, '')
		FROM %s
		WHERE callid = ? AND notify = 'asrmessage_notify'
		ORDER BY sequence ASC`, table)

	rows, err := c.db.QueryContext(ctx, query, callID)
	if err != nil {
		if missingTable(err) {
			c.logger.Warn("detail shard missing", zap.String("table", table))
			return "", nil
		}
		return "", fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var question, answer string
		if err := rows.Scan(&question, &answer); err != nil {
			return "", fmt.Errorf("failed to scan call detail: %w", err)
		}
		if question != "" {
			lines = append(lines, "客户: "+question)
		}
		if answer != "" {
			lines = append(lines, "机器人: "+answer)
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// parseSourceTime accepts the datetime formats the mysql driver returns
// without parseTime enabled.
func parseSourceTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

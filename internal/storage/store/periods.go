package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/callportrait/backend/internal/storage/models"
)

// RegisterPeriod creates the state row in "pending" if absent. An existing
// row is left exactly as it is.
func (c *Client) RegisterPeriod(ctx context.Context, state *models.PeriodState) error {
	verb := "INSERT OR IGNORE"
	if c.driver == DriverMySQL {
		verb = "INSERT IGNORE"
	}
	now := time.Now().Unix()
	query := fmt.Sprintf(`%s INTO period_states
		(id, period_type, period_key, period_start, period_end, status,
		 total_customers, total_records, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, '', ?, ?)`, verb)

	_, err := c.db.ExecContext(ctx, query,
		uuid.New().String(), state.PeriodType, state.PeriodKey,
		state.PeriodStart.Unix(), state.PeriodEnd.Unix(),
		models.PeriodStatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to register period: %w", err)
	}
	return nil
}

// GetPeriodState returns nil when the period was never registered.
func (c *Client) GetPeriodState(ctx context.Context, periodType, periodKey string) (*models.PeriodState, error) {
	states, err := c.queryPeriodStates(ctx,
		periodStateSelect+" WHERE period_type = ? AND period_key = ?",
		periodType, periodKey)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, nil
	}
	return states[0], nil
}

// ClaimComputing is the compare-and-set transition into "computing". Only
// one caller can win it; a completed period is claimable only with force.
func (c *Client) ClaimComputing(ctx context.Context, periodType, periodKey string, force bool) (bool, error) {
	blocked := "('computing', 'completed')"
	if force {
		blocked = "('computing')"
	}
	query := fmt.Sprintf(`UPDATE period_states
		SET status = ?, error_message = '', updated_at = ?
		WHERE period_type = ? AND period_key = ? AND status NOT IN %s`, blocked)

	res, err := c.db.ExecContext(ctx, query,
		models.PeriodStatusComputing, time.Now().Unix(), periodType, periodKey)
	if err != nil {
		return false, fmt.Errorf("failed to claim period: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n > 0, nil
}

func (c *Client) MarkPeriodCompleted(ctx context.Context, periodType, periodKey string, customers, records int) error {
	now := time.Now().Unix()
	_, err := c.db.ExecContext(ctx, `UPDATE period_states
		SET status = ?, total_customers = ?, total_records = ?,
		    error_message = '', computed_at = ?, updated_at = ?
		WHERE period_type = ? AND period_key = ?`,
		models.PeriodStatusCompleted, customers, records, now, now, periodType, periodKey)
	if err != nil {
		return fmt.Errorf("failed to mark period completed: %w", err)
	}
	return nil
}

func (c *Client) MarkPeriodFailed(ctx context.Context, periodType, periodKey, message string) error {
	_, err := c.db.ExecContext(ctx, `UPDATE period_states
		SET status = ?, error_message = ?, updated_at = ?
		WHERE period_type = ? AND period_key = ?`,
		models.PeriodStatusFailed, message, time.Now().Unix(), periodType, periodKey)
	if err != nil {
		return fmt.Errorf("failed to mark period failed: %w", err)
	}
	return nil
}

// ListPeriodStates returns states of one period type, newest first.
func (c *Client) ListPeriodStates(ctx context.Context, periodType string, limit int) ([]*models.PeriodState, error) {
	return c.queryPeriodStates(ctx,
		periodStateSelect+" WHERE period_type = ? ORDER BY period_key DESC LIMIT ?",
		periodType, limit)
}

const periodStateSelect = `SELECT id, period_type, period_key, period_start, period_end,
	status, total_customers, total_records, error_message, computed_at,
	created_at, updated_at FROM period_states`

func (c *Client) queryPeriodStates(ctx context.Context, query string, args ...any) ([]*models.PeriodState, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period states: %w", err)
	}
	defer rows.Close()

	var states []*models.PeriodState
	for rows.Next() {
		var (
			s           models.PeriodState
			periodStart int64
			periodEnd   int64
			computedAt  sql.NullInt64
			createdAt   int64
			updatedAt   int64
		)
		if err := rows.Scan(
			&s.ID, &s.PeriodType, &s.PeriodKey, &periodStart, &periodEnd,
			&s.Status, &s.TotalCustomers, &s.TotalRecords, &s.ErrorMessage,
			&computedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan period state: %w", err)
		}
		s.PeriodStart = time.Unix(periodStart, 0).UTC()
		s.PeriodEnd = time.Unix(periodEnd, 0).UTC()
		if computedAt.Valid {
			t := time.Unix(computedAt.Int64, 0).UTC()
			s.ComputedAt = &t
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		states = append(states, &s)
	}
	return states, rows.Err()
}

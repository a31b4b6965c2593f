package portrait

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callportrait/backend/internal/storage/models"
)

type fakeQueryStore struct {
	snapshots map[string]*models.CustomerPeriodSnapshot
	summaries map[string][]*models.TaskPeriodSummary
}

func newFakeQueryStore() *fakeQueryStore {
	return &fakeQueryStore{
		snapshots: make(map[string]*models.CustomerPeriodSnapshot),
		summaries: make(map[string][]*models.TaskPeriodSummary),
	}
}

func (f *fakeQueryStore) GetCustomerSnapshot(_ context.Context, customerID, taskID, periodType, periodKey string) (*models.CustomerPeriodSnapshot, error) {
	return f.snapshots[customerID+"/"+taskID+"/"+periodType+"/"+periodKey], nil
}

func (f *fakeQueryStore) ListCustomerSnapshots(_ context.Context, customerID, periodType string, limit int) ([]*models.CustomerPeriodSnapshot, error) {
	var out []*models.CustomerPeriodSnapshot
	for _, s := range f.snapshots {
		if s.CustomerID == customerID && s.PeriodType == periodType && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeQueryStore) ListSnapshotsByPeriod(_ context.Context, periodType, periodKey string) ([]*models.CustomerPeriodSnapshot, error) {
	return nil, nil
}

func (f *fakeQueryStore) GetTaskSummary(_ context.Context, taskID, periodType, periodKey string) (*models.TaskPeriodSummary, error) {
	for _, s := range f.summaries[periodType+"/"+periodKey] {
		if s.TaskID == taskID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeQueryStore) ListTaskSummariesByPeriod(_ context.Context, periodType, periodKey string) ([]*models.TaskPeriodSummary, error) {
	return f.summaries[periodType+"/"+periodKey], nil
}

func (f *fakeQueryStore) ListTaskSummaries(_ context.Context, taskID, periodType string, limit int) ([]*models.TaskPeriodSummary, error) {
	var out []*models.TaskPeriodSummary
	for _, group := range f.summaries {
		for _, s := range group {
			if s.TaskID == taskID && s.PeriodType == periodType && len(out) < limit {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func TestCustomerPortraitMissingIsNil(t *testing.T) {
	svc := NewService(newFakeQueryStore(), nil)

	snapshot, err := svc.CustomerPortrait(context.Background(), "c1", "t1", "month", "2025-08")
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestCustomerPortraitFound(t *testing.T) {
	store := newFakeQueryStore()
	store.snapshots["c1/t1/month/2025-08"] = &models.CustomerPeriodSnapshot{
		CustomerID: "c1",
		TaskID:     "t1",
		PeriodType: "month",
		PeriodKey:  "2025-08",
		TotalCalls: 4,
	}
	svc := NewService(store, nil)

	snapshot, err := svc.CustomerPortrait(context.Background(), "c1", "t1", "month", "2025-08")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 4, snapshot.TotalCalls)
}

func TestTrendAveragesRates(t *testing.T) {
	store := newFakeQueryStore()
	store.summaries["month/2025-08"] = []*models.TaskPeriodSummary{
		{TaskID: "t1", PeriodType: "month", PeriodKey: "2025-08", ConnectRate: 0.5},
		{TaskID: "t2", PeriodType: "month", PeriodKey: "2025-08", ConnectRate: 0.7},
	}
	store.summaries["month/2025-06"] = []*models.TaskPeriodSummary{
		{TaskID: "t1", PeriodType: "month", PeriodKey: "2025-06", ConnectRate: 0.25},
	}
	svc := NewService(store, nil)

	now := time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)
	points, err := svc.Trend(context.Background(), "month", "connect_rate", 3, now)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2025-08", points[0].PeriodKey)
	assert.InDelta(t, 0.6, points[0].Value, 1e-9)
	assert.Equal(t, 2, points[0].Tasks)

	// Uncomputed period keeps the series contiguous at zero.
	assert.Equal(t, "2025-07", points[1].PeriodKey)
	assert.Equal(t, 0.0, points[1].Value)
	assert.Equal(t, 0, points[1].Tasks)

	assert.Equal(t, "2025-06", points[2].PeriodKey)
	assert.InDelta(t, 0.25, points[2].Value, 1e-9)
}

func TestTrendSumsCounts(t *testing.T) {
	store := newFakeQueryStore()
	store.summaries["month/2025-08"] = []*models.TaskPeriodSummary{
		{TaskID: "t1", TotalCalls: 30},
		{TaskID: "t2", TotalCalls: 12},
	}
	svc := NewService(store, nil)

	now := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	points, err := svc.Trend(context.Background(), "month", "total_calls", 1, now)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 42.0, points[0].Value)
}

func TestTrendUnknownMetric(t *testing.T) {
	svc := NewService(newFakeQueryStore(), nil)

	_, err := svc.Trend(context.Background(), "month", "bogus", 3, time.Now())
	assert.Error(t, err)
}

func TestPeriodSummaryPassthrough(t *testing.T) {
	store := newFakeQueryStore()
	store.summaries["week/2025-W30"] = []*models.TaskPeriodSummary{
		{TaskID: "t1", PeriodType: "week", PeriodKey: "2025-W30"},
	}
	svc := NewService(store, nil)

	summaries, err := svc.PeriodSummary(context.Background(), "week", "2025-W30")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "t1", summaries[0].TaskID)
}

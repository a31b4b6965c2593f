package period

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callportrait/backend/internal/storage/models"
)

type memStore struct {
	mu     sync.Mutex
	states map[string]*models.PeriodState
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]*models.PeriodState)}
}

func stateKey(periodType, periodKey string) string {
	return periodType + "/" + periodKey
}

func (s *memStore) RegisterPeriod(_ context.Context, state *models.PeriodState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stateKey(state.PeriodType, state.PeriodKey)
	if _, ok := s.states[k]; !ok {
		clone := *state
		s.states[k] = &clone
	}
	return nil
}

func (s *memStore) GetPeriodState(_ context.Context, periodType, periodKey string) (*models.PeriodState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[stateKey(periodType, periodKey)]
	if !ok {
		return nil, nil
	}
	clone := *st
	return &clone, nil
}

func (s *memStore) ClaimComputing(_ context.Context, periodType, periodKey string, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[stateKey(periodType, periodKey)]
	if !ok {
		return false, errors.New("period not registered")
	}
	if st.Status == models.PeriodStatusComputing {
		return false, nil
	}
	if st.Status == models.PeriodStatusCompleted && !force {
		return false, nil
	}
	st.Status = models.PeriodStatusComputing
	st.ErrorMessage = ""
	return true, nil
}

func (s *memStore) MarkPeriodCompleted(_ context.Context, periodType, periodKey string, customers, records int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[stateKey(periodType, periodKey)]
	st.Status = models.PeriodStatusCompleted
	st.TotalCustomers = customers
	st.TotalRecords = records
	return nil
}

func (s *memStore) MarkPeriodFailed(_ context.Context, periodType, periodKey, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[stateKey(periodType, periodKey)]
	st.Status = models.PeriodStatusFailed
	st.ErrorMessage = message
	return nil
}

type fakeAggregator struct {
	customers int
	records   int
	err       error
	calls     int

	block   chan struct{}
	started chan struct{}
}

func (a *fakeAggregator) ComputePeriod(context.Context, string, string) (int, int, error) {
	a.calls++
	if a.started != nil {
		close(a.started)
	}
	if a.block != nil {
		<-a.block
	}
	return a.customers, a.records, a.err
}

func TestComputeSuccess(t *testing.T) {
	store := newMemStore()
	agg := &fakeAggregator{customers: 12, records: 340}
	tracker := NewTracker(store, agg)

	res, err := tracker.Compute(context.Background(), TypeMonth, "2025-11", false)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Status)
	assert.Equal(t, 12, res.Customers)
	assert.Equal(t, 340, res.Records)

	st, err := store.GetPeriodState(context.Background(), TypeMonth, "2025-11")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusCompleted, st.Status)
	assert.Equal(t, 12, st.TotalCustomers)
	assert.Equal(t, 340, st.TotalRecords)
}

func TestComputeInvalidKeyFailsFast(t *testing.T) {
	store := newMemStore()
	tracker := NewTracker(store, &fakeAggregator{})

	_, err := tracker.Compute(context.Background(), TypeMonth, "2025-13", false)
	assert.ErrorIs(t, err, ErrInvalidPeriodKey)
	assert.Empty(t, store.states)
}

func TestComputeSkipsCompletedWithoutForce(t *testing.T) {
	store := newMemStore()
	agg := &fakeAggregator{customers: 1, records: 2}
	tracker := NewTracker(store, agg)

	_, err := tracker.Compute(context.Background(), TypeWeek, "2025-W10", false)
	require.NoError(t, err)

	res, err := tracker.Compute(context.Background(), TypeWeek, "2025-W10", false)
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, res.Status)
	assert.Equal(t, 1, agg.calls)

	res, err = tracker.Compute(context.Background(), TypeWeek, "2025-W10", true)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Status)
	assert.Equal(t, 2, agg.calls)
}

func TestComputeFailureRecordedAndRetryable(t *testing.T) {
	store := newMemStore()
	agg := &fakeAggregator{err: errors.New("source unavailable")}
	tracker := NewTracker(store, agg)

	res, err := tracker.Compute(context.Background(), TypeQuarter, "2025-Q3", false)
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, res.Status)
	assert.Equal(t, "source unavailable", res.Message)

	st, err := store.GetPeriodState(context.Background(), TypeQuarter, "2025-Q3")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusFailed, st.Status)
	assert.Equal(t, "source unavailable", st.ErrorMessage)

	// A failed period can be retried without force.
	agg.err = nil
	agg.customers = 5
	res, err = tracker.Compute(context.Background(), TypeQuarter, "2025-Q3", false)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Status)
}

func TestComputeConcurrentClaim(t *testing.T) {
	store := newMemStore()
	agg := &fakeAggregator{
		customers: 3,
		records:   9,
		block:     make(chan struct{}),
		started:   make(chan struct{}),
	}
	tracker := NewTracker(store, agg)

	done := make(chan *Result, 1)
	go func() {
		res, err := tracker.Compute(context.Background(), TypeMonth, "2025-06", false)
		require.NoError(t, err)
		done <- res
	}()

	<-agg.started
	res, err := tracker.Compute(context.Background(), TypeMonth, "2025-06", false)
	require.NoError(t, err)
	assert.Equal(t, ResultInProgress, res.Status)

	close(agg.block)
	first := <-done
	assert.Equal(t, ResultSuccess, first.Status)
	assert.Equal(t, 1, agg.calls)
}

func TestRegisterIsIdempotent(t *testing.T) {
	store := newMemStore()
	tracker := NewTracker(store, &fakeAggregator{customers: 7})

	st, err := tracker.Register(context.Background(), TypeMonth, "2025-05")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusPending, st.Status)
	assert.Equal(t, day(2025, 5, 1), st.PeriodStart)
	assert.Equal(t, day(2025, 5, 31), st.PeriodEnd)

	_, err = tracker.Compute(context.Background(), TypeMonth, "2025-05", false)
	require.NoError(t, err)

	st, err = tracker.Register(context.Background(), TypeMonth, "2025-05")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusCompleted, st.Status)
}

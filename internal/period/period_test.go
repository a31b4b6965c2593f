package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseKeyWeek(t *testing.T) {
	r, err := ParseKey(TypeWeek, "2025-W01")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.December, 30), r.Start)
	assert.Equal(t, day(2025, time.January, 5), r.End)

	r, err = ParseKey(TypeWeek, "2025-W48")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, r.Start.Weekday())
	assert.Equal(t, time.Sunday, r.End.Weekday())
	assert.Equal(t, 6*24*time.Hour, r.End.Sub(r.Start))
}

func TestParseKeyWeek53(t *testing.T) {
	// 2020 is a 53-week ISO year, 2025 is not.
	r, err := ParseKey(TypeWeek, "2020-W53")
	require.NoError(t, err)
	assert.Equal(t, day(2020, time.December, 28), r.Start)

	_, err = ParseKey(TypeWeek, "2025-W53")
	assert.ErrorIs(t, err, ErrInvalidPeriodKey)
}

func TestParseKeyMonth(t *testing.T) {
	r, err := ParseKey(TypeMonth, "2025-11")
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.November, 1), r.Start)
	assert.Equal(t, day(2025, time.November, 30), r.End)

	// Leap February.
	r, err = ParseKey(TypeMonth, "2024-02")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.February, 29), r.End)
}

func TestParseKeyQuarter(t *testing.T) {
	r, err := ParseKey(TypeQuarter, "2025-Q4")
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.October, 1), r.Start)
	assert.Equal(t, day(2025, time.December, 31), r.End)
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	cases := []struct{ periodType, key string }{
		{TypeWeek, "2025-48"},
		{TypeWeek, "2025-W0"},
		{TypeWeek, "2025-W00"},
		{TypeWeek, "2025-W54"},
		{TypeMonth, "2025-13"},
		{TypeMonth, "2025-00"},
		{TypeMonth, "2025-1"},
		{TypeQuarter, "2025-Q5"},
		{TypeQuarter, "2025-Q0"},
		{TypeQuarter, "2025-4"},
		{"year", "2025"},
		{TypeMonth, ""},
	}
	for _, tc := range cases {
		_, err := ParseKey(tc.periodType, tc.key)
		assert.ErrorIs(t, err, ErrInvalidPeriodKey, "%s %q", tc.periodType, tc.key)
	}
}

func TestKeyForRoundTrip(t *testing.T) {
	for _, periodType := range []string{TypeWeek, TypeMonth, TypeQuarter} {
		d := day(2024, time.January, 1)
		for d.Year() < 2026 {
			key, err := KeyFor(periodType, d)
			require.NoError(t, err)
			r, err := ParseKey(periodType, key)
			require.NoError(t, err, "%s %q", periodType, key)
			assert.False(t, d.Before(r.Start), "%s: %s before start of %q", periodType, d, key)
			assert.False(t, d.After(r.End), "%s: %s after end of %q", periodType, d, key)
			d = d.AddDate(0, 0, 11)
		}
	}
}

func TestWeeksAreContiguous(t *testing.T) {
	prev, err := ParseKey(TypeWeek, WeekKey(day(2024, time.January, 1)))
	require.NoError(t, err)
	for i := 0; i < 110; i++ {
		next, err := ParseKey(TypeWeek, WeekKey(prev.End.AddDate(0, 0, 1)))
		require.NoError(t, err)
		assert.Equal(t, prev.End.AddDate(0, 0, 1), next.Start)
		prev = next
	}
}

func TestPreviousKey(t *testing.T) {
	now := day(2025, time.January, 2)

	key, err := PreviousKey(TypeMonth, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-12", key)

	key, err = PreviousKey(TypeQuarter, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q4", key)

	key, err = PreviousKey(TypeWeek, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-W52", key)
}

func TestRecent(t *testing.T) {
	keys, err := Recent(TypeMonth, day(2025, time.March, 15), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02", "2025-01", "2024-12", "2024-11"}, keys)

	keys, err = Recent(TypeQuarter, day(2025, time.February, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-Q4", "2024-Q3"}, keys)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "2025年第48周", Label(TypeWeek, "2025-W48"))
	assert.Equal(t, "2025年11月", Label(TypeMonth, "2025-11"))
	assert.Equal(t, "2025年第4季度", Label(TypeQuarter, "2025-Q4"))
	assert.Equal(t, "bogus", Label(TypeWeek, "bogus"))
}

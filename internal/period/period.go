package period

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Period types.
const (
	TypeWeek    = "week"
	TypeMonth   = "month"
	TypeQuarter = "quarter"
)

// ErrInvalidPeriodKey marks a malformed or out-of-range period key. It
// always fails fast, before any state is touched.
var ErrInvalidPeriodKey = errors.New("invalid period key")

var (
	weekKeyRe    = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	monthKeyRe   = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	quarterKeyRe = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)
)

// Range is an inclusive calendar date range at UTC midnight precision.
type Range struct {
	Start time.Time
	End   time.Time
}

func IsValidType(periodType string) bool {
	return periodType == TypeWeek || periodType == TypeMonth || periodType == TypeQuarter
}

// ParseKey resolves a period key ("2025-W48", "2025-11", "2025-Q4") to its
// date range. Week keys follow the ISO calendar (Monday through Sunday).
func ParseKey(periodType, periodKey string) (Range, error) {
	switch periodType {
	case TypeWeek:
		m := weekKeyRe.FindStringSubmatch(periodKey)
		if m == nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		year := atoi(m[1])
		week := atoi(m[2])
		if week < 1 || week > 53 {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		// January 4th is always inside ISO week 1.
		anchor := date(year, time.January, 4)
		start := mondayOf(anchor.AddDate(0, 0, 7*(week-1)))
		if isoYear, isoWeek := start.ISOWeek(); isoYear != year || isoWeek != week {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		return Range{Start: start, End: start.AddDate(0, 0, 6)}, nil

	case TypeMonth:
		m := monthKeyRe.FindStringSubmatch(periodKey)
		if m == nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		year := atoi(m[1])
		month := atoi(m[2])
		if month < 1 || month > 12 {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		start := date(year, time.Month(month), 1)
		return Range{Start: start, End: start.AddDate(0, 1, -1)}, nil

	case TypeQuarter:
		m := quarterKeyRe.FindStringSubmatch(periodKey)
		if m == nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, periodKey)
		}
		year := atoi(m[1])
		quarter := atoi(m[2])
		start := date(year, time.Month((quarter-1)*3+1), 1)
		return Range{Start: start, End: start.AddDate(0, 3, -1)}, nil
	}

	return Range{}, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodKey, periodType)
}

// KeyFor returns the period key of the period containing t.
func KeyFor(periodType string, t time.Time) (string, error) {
	switch periodType {
	case TypeWeek:
		return WeekKey(t), nil
	case TypeMonth:
		return MonthKey(t), nil
	case TypeQuarter:
		return QuarterKey(t), nil
	}
	return "", fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodKey, periodType)
}

func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func QuarterKey(t time.Time) string {
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%04d-Q%d", t.Year(), quarter)
}

// PreviousKey returns the key of the period immediately before the one
// containing now. Used by the scheduler to compute the just-closed period.
func PreviousKey(periodType string, now time.Time) (string, error) {
	switch periodType {
	case TypeWeek:
		return WeekKey(now.AddDate(0, 0, -7)), nil
	case TypeMonth:
		firstOfMonth := date(now.Year(), now.Month(), 1)
		return MonthKey(firstOfMonth.AddDate(0, 0, -1)), nil
	case TypeQuarter:
		r, err := ParseKey(TypeQuarter, QuarterKey(now))
		if err != nil {
			return "", err
		}
		return QuarterKey(r.Start.AddDate(0, 0, -1)), nil
	}
	return "", fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodKey, periodType)
}

// Label renders the human-readable label used by the reporting UI.
func Label(periodType, periodKey string) string {
	switch periodType {
	case TypeWeek:
		if m := weekKeyRe.FindStringSubmatch(periodKey); m != nil {
			return fmt.Sprintf("%s年第%d周", m[1], atoi(m[2]))
		}
	case TypeMonth:
		if m := monthKeyRe.FindStringSubmatch(periodKey); m != nil {
			return fmt.Sprintf("%s年%d月", m[1], atoi(m[2]))
		}
	case TypeQuarter:
		if m := quarterKeyRe.FindStringSubmatch(periodKey); m != nil {
			return fmt.Sprintf("%s年第%s季度", m[1], m[2])
		}
	}
	return periodKey
}

// Recent lists the latest count periods of the given type, newest first,
// starting from the most recently closed period.
func Recent(periodType string, now time.Time, count int) ([]string, error) {
	if !IsValidType(periodType) {
		return nil, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodKey, periodType)
	}

	keys := make([]string, 0, count)
	key, err := PreviousKey(periodType, now)
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		keys = append(keys, key)
		r, err := ParseKey(periodType, key)
		if err != nil {
			return nil, err
		}
		key, err = KeyFor(periodType, r.Start.AddDate(0, 0, -1))
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func mondayOf(t time.Time) time.Time {
	// time.Weekday has Sunday == 0; ISO weeks start on Monday.
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

/*
time.go - Calendar utility: day-granular time points and working-day math

PURPOSE:
  Leave is booked in whole calendar days. This file owns the date type the
  engine uses everywhere, the accepted input formats, and the working-day
  count that turns a [start, end] range into the number of days debited.

WORKING DAYS:
  A working day is Monday-Friday. Public holidays are not modelled.

    WorkingDays(2025-02-15 Sat, 2025-02-20 Thu) = 4  (Mon 17 .. Thu 20)

  The count is computed arithmetically: whole weeks contribute 5 days each,
  and at most 6 remaining days are walked one by one.

INPUT FORMATS (tried in this order, first match wins):
  1. YYYY-MM-DD   2026-03-05
  2. DD/MM/YYYY   05/03/2026
  3. MM/DD/YYYY   12/25/2026  (only reached when DD/MM/YYYY fails)
  4. DD-MM-YYYY   05-03-2026

  Day and month may be written with one or two digits. Output is always
  YYYY-MM-DD.

SEE ALSO:
  - period.go: Period, the request range and the summary year window
  - leave/request.go: Uses ParseDate and WorkingDays during submission
*/
package generic

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical output format for dates crossing the API boundary.
const DateLayout = "2006-01-02"

// InputLayouts lists the accepted date formats in priority order.
var InputLayouts = []string{
	"2006-1-2", // YYYY-MM-DD
	"2/1/2006", // DD/MM/YYYY
	"1/2/2006", // MM/DD/YYYY
	"2-1-2006", // DD-MM-YYYY
}

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a calendar day in UTC. The zero value is "no date".
type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// Clock returns the current day. Services take one so tests can pin "today".
type Clock func() TimePoint

// FixedClock returns a Clock that always reports tp.
func FixedClock(tp TimePoint) Clock {
	return func() TimePoint { return tp }
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsWorkday() bool { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool    { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// PARSING
// =============================================================================

// ParseDate parses s using InputLayouts in order.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	for _, layout := range InputLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return FromTime(t), nil
		}
	}
	return TimePoint{}, fmt.Errorf("unrecognized date %q", s)
}

// =============================================================================
// WORKING DAYS
// =============================================================================

// WorkingDays counts Monday-Friday dates in the inclusive range [start, end].
// It returns 0 when end is before start.
func WorkingDays(start, end TimePoint) int {
	if end.Before(start) {
		return 0
	}
	total := DaysBetween(start, end) + 1

	count := (total / 7) * 5
	current := start.AddDays((total / 7) * 7)
	for i := 0; i < total%7; i++ {
		if current.IsWorkday() {
			count++
		}
		current = current.AddDays(1)
	}
	return count
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }

package generic

// =============================================================================
// PERIOD - An inclusive range of days
// =============================================================================

// Period is the inclusive day range [Start, End].
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - A leave request:    Feb 17 - Feb 20
type Period struct {
	Start TimePoint
	End   TimePoint
}

// YearPeriod returns the calendar year containing all of year's days.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Valid reports whether Start is not after End.
func (p Period) Valid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// WorkingDays is WorkingDays(p.Start, p.End).
func (p Period) WorkingDays() int {
	return WorkingDays(p.Start, p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

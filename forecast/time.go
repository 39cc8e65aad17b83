package forecast

import (
	"time"
)

// =============================================================================
// DAY - Day-granularity time point (the engine's native resolution)
// =============================================================================

// Day is a calendar day, normalized to midnight UTC. All estimate math
// operates at day granularity; only CalendarEvent carries clock time.
type Day struct {
	Time time.Time
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an arbitrary instant to its UTC calendar day.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return NewDay(u.Year(), u.Month(), u.Day())
}

func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a "2006-01-02" string. Used at persistence and API
// boundaries; the engine itself never sees strings.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.norm().Before(other.norm()) }
func (d Day) After(other Day) bool         { return d.norm().After(other.norm()) }
func (d Day) Equal(other Day) bool         { return d.norm().Equal(other.norm()) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

func (d Day) norm() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{Time: d.norm().AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{Time: d.norm().AddDate(0, n, 0)} }
func (d Day) AddYears(n int) Day  { return Day{Time: d.norm().AddDate(n, 0, 0)} }

// Properties
func (d Day) Year() int             { return d.Time.Year() }
func (d Day) Month() time.Month     { return d.Time.Month() }
func (d Day) DayOfMonth() int       { return d.Time.Day() }
func (d Day) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Day) IsZero() bool          { return d.Time.IsZero() }

func (d Day) String() string { return d.norm().Format("2006-01-02") }

// Min/Max
func MinDay(a, b Day) Day {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDay(a, b Day) Day {
	if a.After(b) {
		return a
	}
	return b
}

// DaysBetween returns the number of whole days from `from` to `to`
// (negative if `to` is earlier).
func DaysBetween(from, to Day) int {
	return int(to.norm().Sub(from.norm()).Hours() / 24)
}

// LastDayOfMonth returns the final calendar day of the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// ClampDayOfMonth builds a day in the given month, clamping the requested
// day-of-month to the month's length (Feb 30 becomes Feb 28/29).
func ClampDayOfMonth(year int, month time.Month, day int) Day {
	if last := LastDayOfMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDay(year, month, day)
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span
// =============================================================================

type DateRange struct {
	Start Day
	End   Day
}

func NewDateRange(start, end Day) DateRange {
	return DateRange{Start: start, End: end}
}

// Contains reports whether the day falls within [Start, End].
func (r DateRange) Contains(d Day) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// IsValid reports whether End is not before Start. A degenerate range
// (End < Start) is a legitimate empty query, not an error, for read paths.
func (r DateRange) IsValid() bool { return !r.End.Before(r.Start) }

// Days returns every day in the range, ascending.
func (r DateRange) Days() []Day {
	var days []Day
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// WEEKDAY MASK - Per-weekday working-day enablement
// =============================================================================

// WeekdayMask marks which weekdays count as working days, indexed by
// time.Weekday (Sunday = 0).
type WeekdayMask [7]bool

// DefaultWeekdayMask enables every weekday. Projects that never configure
// working days treat all seven as available.
func DefaultWeekdayMask() WeekdayMask {
	return WeekdayMask{true, true, true, true, true, true, true}
}

// BusinessWeekMask enables Monday through Friday.
func BusinessWeekMask() WeekdayMask {
	var m WeekdayMask
	for wd := time.Monday; wd <= time.Friday; wd++ {
		m[wd] = true
	}
	return m
}

func (m WeekdayMask) Enabled(wd time.Weekday) bool { return m[wd] }

// IsEmpty reports whether no weekday is enabled. An all-false mask makes
// every span degenerate (zero working days) and is worth flagging early.
func (m WeekdayMask) IsEmpty() bool {
	for _, on := range m {
		if on {
			return false
		}
	}
	return true
}

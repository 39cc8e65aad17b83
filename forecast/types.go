/*
Package forecast provides the project/time forecasting engine.

PURPOSE:
  This package contains the pure computation core for turning a Project's
  hour budget, its Phases (fixed or recurring), holidays, and scheduled
  calendar events into per-day hour estimates.

KEY CONCEPTS IN THIS FILE (types.go):
  - Project: A total hour budget over a date range (or open-ended)
  - Phase: A time-bounded slice of that budget, optionally recurring
  - Holiday: An inclusive span of non-working days
  - CalendarEvent: Actual scheduled time, which suppresses estimates
  - DayEstimate: The derived per-day output; never persisted
  - Hours: A decimal-backed hour quantity

DESIGN PRINCIPLES:
  1. Purity: Every calculation is a function of its arguments. No I/O,
     no caching, no shared state. Safe to call from any goroutine.
  2. Precision: Uses decimal.Decimal so dividing a budget across days
     and summing it back conserves the budget.
  3. Derived data stays derived: DayEstimate is recomputed on every
     read from current Project+Phase+Holiday state.

SEE ALSO:
  - workdays.go:  Working-day filtering
  - segment.go:   Partitioning a project into phase-owned segments
  - recurring.go: Expanding recurring phases into occurrences
  - estimate.go:  Per-day hour distribution
  - resolve.go:   Event-vs-estimate display resolution
  - sync.go:      Project/Phase date invariant maintenance
*/
package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal hour quantity
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(v float64) Hours     { return Hours{Value: decimal.NewFromFloat(v)} }
func HoursFromInt(v int) Hours     { return Hours{Value: decimal.NewFromInt(int64(v))} }
func ZeroHours() Hours             { return Hours{Value: decimal.Zero} }

func (h Hours) Add(o Hours) Hours          { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours          { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) DivInt(n int) Hours         { return Hours{Value: h.Value.Div(decimal.NewFromInt(int64(n)))} }
func (h Hours) IsZero() bool               { return h.Value.IsZero() }
func (h Hours) IsPositive() bool           { return h.Value.IsPositive() }
func (h Hours) IsNegative() bool           { return h.Value.IsNegative() }
func (h Hours) GreaterThan(o Hours) bool   { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool      { return h.Value.LessThan(o.Value) }
func (h Hours) Float64() float64           { f, _ := h.Value.Float64(); return f }
func (h Hours) String() string             { return h.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProjectID string
type PhaseID string
type HolidayID string
type EventID string

// =============================================================================
// PROJECT - Hour budget over a date range
// =============================================================================

type Project struct {
	ID             ProjectID
	Name           string
	EstimatedHours Hours
	StartDate      Day

	// EndDate is zero iff Continuous is true. Continuous projects have no
	// deadline; reads supply a horizon instead.
	EndDate    Day
	Continuous bool

	// WorkingDays controls which weekdays receive estimates.
	WorkingDays WeekdayMask
}

// EffectiveEnd returns the project's end date, or the supplied horizon for
// continuous projects. Continuous projects are never expanded past the
// horizon; the caller always bounds the computation.
func (p Project) EffectiveEnd(horizon Day) Day {
	if p.Continuous {
		return horizon
	}
	return p.EndDate
}

// Range returns the project's own date range (continuous projects have an
// open end; use EffectiveEnd for computation bounds).
func (p Project) Range() DateRange {
	return DateRange{Start: p.StartDate, End: p.EndDate}
}

// =============================================================================
// PHASE - Time-bounded budget allocation
// =============================================================================

type Phase struct {
	ID        PhaseID
	ProjectID ProjectID
	Name      string

	// StartDate is optional. A nil start anchors the phase to the previous
	// phase's end (or the project's start if it is the first phase).
	StartDate *Day
	EndDate   Day

	// Allocation is the canonical hour budget for this phase. Legacy field
	// aliases from older exports are normalized to it at the persistence
	// boundary, never inside calculations.
	Allocation Hours

	// Recurring is nil for ordinary phases. A project holds either ordinary
	// phases or exactly one recurring template, never both.
	Recurring *RecurringConfig
}

func (ph Phase) IsRecurring() bool { return ph.Recurring != nil }

// EffectiveStart resolves the phase's lower bound given the end of the
// previous phase (the day before the project start for the first phase).
func (ph Phase) EffectiveStart(previousEnd Day) Day {
	if ph.StartDate != nil {
		return *ph.StartDate
	}
	return previousEnd.AddDays(1)
}

// =============================================================================
// RECURRING CONFIG
// =============================================================================

type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
)

type MonthlyPattern string

const (
	// MonthlyByDate repeats on a fixed day-of-month, clamped to short months.
	MonthlyByDate MonthlyPattern = "date"
	// MonthlyByWeekday repeats on the Nth weekday of the month ("2nd Tuesday").
	MonthlyByWeekday MonthlyPattern = "dayOfWeek"
)

type RecurringConfig struct {
	Type     RecurrenceType
	Interval int // every N days/weeks/months; must be > 0

	// Weekly
	WeeklyDay time.Weekday

	// Monthly
	MonthlyPattern MonthlyPattern
	MonthlyDate    int // 1..31, clamped to month length
	MonthlyWeek    int // 1..5, for MonthlyByWeekday
	MonthlyWeekday time.Weekday
}

// =============================================================================
// HOLIDAY - Inclusive span of non-working days
// =============================================================================

type Holiday struct {
	ID    HolidayID
	Name  string
	Start Day
	End   Day
}

func (h Holiday) Contains(d Day) bool {
	return d.AfterOrEqual(h.Start) && d.BeforeOrEqual(h.End)
}

// =============================================================================
// CALENDAR EVENT - Actual scheduled time
// =============================================================================

type CalendarEvent struct {
	ID        EventID
	ProjectID ProjectID // empty = not linked to a project
	Title     string
	Start     time.Time
	End       time.Time
	Completed bool
}

// IntersectsDay reports whether any part of the event falls on the given
// calendar day (UTC).
func (e CalendarEvent) IntersectsDay(d Day) bool {
	dayStart := d.Time
	dayEnd := d.AddDays(1).Time
	return e.Start.Before(dayEnd) && e.End.After(dayStart)
}

// HoursOn returns the event's duration clipped to the given day.
func (e CalendarEvent) HoursOn(d Day) Hours {
	dayStart := d.Time
	dayEnd := d.AddDays(1).Time

	start := e.Start
	if start.Before(dayStart) {
		start = dayStart
	}
	end := e.End
	if end.After(dayEnd) {
		end = dayEnd
	}
	if !end.After(start) {
		return ZeroHours()
	}
	return NewHours(end.Sub(start).Hours())
}

// =============================================================================
// DAY ESTIMATE - Derived output, never persisted
// =============================================================================

// DayEstimate is the computed hours a user should work on a given day to
// meet the owning phase's deadline. It is a pure function output: computed
// on demand and regenerated whenever any contributing entity changes.
type DayEstimate struct {
	Date    Day
	Hours   Hours
	PhaseID PhaseID
}

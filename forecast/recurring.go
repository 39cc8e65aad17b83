/*
recurring.go - Recurring phase expansion

PURPOSE:
  Expands a recurring phase template into virtual occurrence windows across
  a bounded date window. Each occurrence covers one recurrence interval of
  elapsed time ending on the pattern date, and each independently carries
  the template's full hour allocation (later divided across that
  occurrence's own working days by estimate.go).

PATTERN GENERATION:
  Daily, weekly, and monthly nth-weekday patterns go through
  github.com/teambition/rrule-go. Monthly by-date is stepped directly
  because the product rule clamps the day-of-month to short months
  (the 30th in February means the last day of February), which RRULE
  BYMONTHDAY cannot express - it would skip the month instead.

BOUNDEDNESS:
  Callers always pass a bounded window (the visible calendar range, a
  horizon for continuous projects). On top of that, maxOccurrences caps the
  expansion so a pathological window can never materialize an unbounded
  series. The cap mirrors the safety cap used when expanding ICS RRULEs.
*/
package forecast

import (
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrences bounds the dates yielded inside a single query window. At
// daily/interval-1 density this is several years of occurrences; a wider
// window is a caller bug. Dates before the window never count against it.
const maxOccurrences = 2000

// Occurrence is one expanded instance of a recurring phase. End is the
// pattern date; [Start, End] is the allocation window whose working days
// share the occurrence's hours.
type Occurrence struct {
	PhaseID PhaseID
	Start   Day
	End     Day
}

func (o Occurrence) Range() DateRange { return DateRange{Start: o.Start, End: o.End} }

// ExpandRecurring generates the phase's occurrences whose pattern dates fall
// in [windowStart, windowEnd]. The first occurrence's window opens at the
// phase start (or windowStart when the phase has none); each subsequent
// window opens the day after the previous pattern date. Windows are clipped
// to windowStart so a mid-series query never reaches back unboundedly.
func ExpandRecurring(phase Phase, windowStart, windowEnd Day) ([]Occurrence, error) {
	cfg := phase.Recurring
	if cfg == nil {
		return nil, &RecurrenceError{Field: "recurring", Detail: "phase is not recurring"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if windowEnd.Before(windowStart) {
		return nil, nil
	}

	anchor := windowStart
	if phase.StartDate != nil {
		anchor = *phase.StartDate
	}

	dates, err := patternDates(*cfg, anchor, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	prev := anchor.AddDays(-1)
	for _, date := range dates {
		out = append(out, Occurrence{
			PhaseID: phase.ID,
			Start:   MaxDay(prev.AddDays(1), windowStart),
			End:     date,
		})
		prev = date
	}
	return out, nil
}

// patternDates yields the raw recurrence dates anchored at anchor that fall
// in [windowStart, end], ascending, capped at maxOccurrences. The cap counts
// only dates inside the window, so a long-lived template queried far from its
// anchor still yields its window.
func patternDates(cfg RecurringConfig, anchor, windowStart, end Day) ([]Day, error) {
	lower := MaxDay(anchor, windowStart)
	if cfg.Type == RecurMonthly && cfg.MonthlyPattern == MonthlyByDate {
		return monthlyByDateDates(cfg, anchor, lower, end), nil
	}

	opt := rrule.ROption{
		Interval: cfg.Interval,
		Dtstart:  anchor.Time,
	}
	switch cfg.Type {
	case RecurDaily:
		opt.Freq = rrule.DAILY
	case RecurWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{toRRuleWeekday(cfg.WeeklyDay)}
	case RecurMonthly:
		// MonthlyByWeekday; MonthlyByDate handled above.
		opt.Freq = rrule.MONTHLY
		wd := toRRuleWeekday(cfg.MonthlyWeekday)
		opt.Byweekday = []rrule.Weekday{wd.Nth(cfg.MonthlyWeek)}
	default:
		return nil, &RecurrenceError{Field: "type", Detail: string(cfg.Type)}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &RecurrenceError{Field: "pattern", Detail: err.Error()}
	}

	times := rule.Between(lower.Time, end.AddDays(1).Time, true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}
	dates := make([]Day, 0, len(times))
	for _, t := range times {
		d := DayOf(t)
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// monthlyByDateDates steps month by month from the anchor's month, clamping
// the configured day-of-month to each month's length. Only dates at or after
// lower are collected, so the cap counts window dates.
func monthlyByDateDates(cfg RecurringConfig, anchor, lower, end Day) []Day {
	var dates []Day
	year, month := anchor.Year(), anchor.Month()
	for len(dates) < maxOccurrences {
		d := ClampDayOfMonth(year, month, cfg.MonthlyDate)
		if d.After(end) {
			break
		}
		if d.AfterOrEqual(lower) {
			dates = append(dates, d)
		}
		// Advance: the first candidate month may predate the anchor date,
		// in which case the same stride still applies.
		next := NewDay(year, month, 1).AddMonths(cfg.Interval)
		year, month = next.Year(), next.Month()
	}
	return dates
}

// Validate checks the pattern's internal consistency. Raised synchronously
// on malformed input; never silently defaulted.
func (cfg RecurringConfig) Validate() error {
	if cfg.Interval < 1 {
		return &RecurrenceError{Field: "interval", Detail: "must be >= 1"}
	}
	switch cfg.Type {
	case RecurDaily:
		return nil
	case RecurWeekly:
		if cfg.WeeklyDay < time.Sunday || cfg.WeeklyDay > time.Saturday {
			return &RecurrenceError{Field: "weeklyDay", Detail: "invalid weekday"}
		}
		return nil
	case RecurMonthly:
		switch cfg.MonthlyPattern {
		case MonthlyByDate:
			if cfg.MonthlyDate < 1 || cfg.MonthlyDate > 31 {
				return &RecurrenceError{Field: "monthlyDate", Detail: "must be 1..31"}
			}
		case MonthlyByWeekday:
			if cfg.MonthlyWeek < 1 || cfg.MonthlyWeek > 5 {
				return &RecurrenceError{Field: "monthlyWeek", Detail: "must be 1..5"}
			}
			if cfg.MonthlyWeekday < time.Sunday || cfg.MonthlyWeekday > time.Saturday {
				return &RecurrenceError{Field: "monthlyWeekday", Detail: "invalid weekday"}
			}
		default:
			return &RecurrenceError{Field: "monthlyPattern", Detail: string(cfg.MonthlyPattern)}
		}
		return nil
	default:
		return &RecurrenceError{Field: "type", Detail: string(cfg.Type)}
	}
}

func toRRuleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

/*
workdays.go - Working-day computation

PURPOSE:
  The single implementation of "which days in this range count as working
  days". Everything downstream (segmenting, recurring expansion, per-day
  estimates, event blocking) filters days through this file. Callers choose
  the mask (a project's own working days vs. global settings), the filter
  is the same.

A day qualifies iff its weekday is enabled in the mask AND no holiday span
contains it. A degenerate range (end before start) yields an empty result,
not an error.
*/
package forecast

// IsWorkingDay reports whether a single day qualifies under the mask and
// holiday set.
func IsWorkingDay(d Day, mask WeekdayMask, holidays []Holiday) bool {
	if !mask.Enabled(d.Weekday()) {
		return false
	}
	for _, h := range holidays {
		if h.Contains(d) {
			return false
		}
	}
	return true
}

// WorkingDays returns every qualifying day in [start, end], ascending,
// inclusive of both endpoints. end == start yields that single day if it
// qualifies; end < start yields nil.
func WorkingDays(start, end Day, mask WeekdayMask, holidays []Holiday) []Day {
	if end.Before(start) {
		return nil
	}
	var days []Day
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(1) {
		if IsWorkingDay(cur, mask, holidays) {
			days = append(days, cur)
		}
	}
	return days
}

// CountWorkingDays returns the number of qualifying days in [start, end].
func CountWorkingDays(start, end Day, mask WeekdayMask, holidays []Holiday) int {
	if end.Before(start) {
		return 0
	}
	count := 0
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(1) {
		if IsWorkingDay(cur, mask, holidays) {
			count++
		}
	}
	return count
}

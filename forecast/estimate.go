/*
estimate.go - Per-day hour distribution

PURPOSE:
  Turns segments (or recurring occurrences) into one DayEstimate per owning
  working day. Each segment's allocation is divided evenly across the
  segment's OWN working days; the query window only clips which of those
  days are emitted, never how the division is computed. A mid-window query
  therefore sees the same per-day value as a whole-range query.

NUMERIC CONTRACT:
  Per-day hours are decimal, unrounded. Rounding is a presentation concern.
  The emitted estimates for a segment sum back to its allocation within
  1e-9 relative tolerance.

DEGENERATE SEGMENTS:
  A segment or occurrence with zero working days (confined to a holiday
  week, say) produces no estimates at all. That is a legitimate state, not
  an error, and it is how division by zero is avoided.
*/
package forecast

// ComputeDayEstimates returns one DayEstimate per working day in `window`
// that has an owning (non-gap) phase or occurrence. Output is ascending by
// date. Results are derived from the arguments alone and are never cached:
// every read recomputes from current state.
func ComputeDayEstimates(project Project, phases []Phase, holidays []Holiday, window DateRange) ([]DayEstimate, error) {
	if !window.IsValid() {
		return nil, nil
	}

	// A recurring template replaces segmentation entirely.
	if tpl := recurringTemplate(phases); tpl != nil {
		if len(phases) > 1 {
			return nil, ErrMixedPhaseKinds
		}
		return recurringEstimates(project, *tpl, holidays, window)
	}

	segments, err := SegmentPhases(project, phases, window.End)
	if err != nil {
		return nil, err
	}

	var out []DayEstimate
	for _, seg := range segments {
		out = append(out, distribute(seg.PhaseID, seg.Allocation, seg.Start, seg.End, project.WorkingDays, holidays, window)...)
	}
	return out, nil
}

func recurringTemplate(phases []Phase) *Phase {
	for i := range phases {
		if phases[i].IsRecurring() {
			return &phases[i]
		}
	}
	return nil
}

func recurringEstimates(project Project, tpl Phase, holidays []Holiday, window DateRange) ([]DayEstimate, error) {
	if project.Continuous && window.End.IsZero() {
		return nil, ErrHorizonRequired
	}
	// Expand from the project start so an occurrence straddling the window
	// edge keeps its true bounds; emission is clipped below.
	expandEnd := MinDay(project.EffectiveEnd(window.End), window.End)
	occurrences, err := ExpandRecurring(tpl, project.StartDate, expandEnd)
	if err != nil {
		return nil, err
	}

	var out []DayEstimate
	for _, occ := range occurrences {
		out = append(out, distribute(occ.PhaseID, tpl.Allocation, occ.Start, occ.End, project.WorkingDays, holidays, window)...)
	}
	return out, nil
}

// distribute divides `allocation` across the working days of [start, end]
// and emits the days that fall inside `window`.
func distribute(phaseID PhaseID, allocation Hours, start, end Day, mask WeekdayMask, holidays []Holiday, window DateRange) []DayEstimate {
	days := WorkingDays(start, end, mask, holidays)
	if len(days) == 0 {
		// Degenerate span: skip silently rather than divide by zero.
		return nil
	}
	perDay := allocation.DivInt(len(days))

	var out []DayEstimate
	for _, d := range days {
		if !window.Contains(d) {
			continue
		}
		out = append(out, DayEstimate{Date: d, Hours: perDay, PhaseID: phaseID})
	}
	return out
}

// EstimateFor returns the estimate for a single date, if any. Convenience
// lookup used by display resolution.
func EstimateFor(estimates []DayEstimate, date Day) *DayEstimate {
	for i := range estimates {
		if estimates[i].Date.Equal(date) {
			return &estimates[i]
		}
	}
	return nil
}

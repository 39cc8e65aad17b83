/*
segment.go - Phase segmentation

PURPOSE:
  Partitions a project's date range into contiguous segments, each owned by
  exactly one phase (or the implicit whole-project phase when no phases
  exist). Gaps between phases produce no segment at all: those days belong
  to nobody and get zero estimate, never an auto-estimate fallback.

ORDERING:
  Phases are ordered by end date, never by a manual index. A phase is a
  deadline; the deadline sequence IS the plan.

BOUNDS:
  An anchored phase (no explicit start) begins the day after the previous
  phase ends, or at the project start for the first phase. An explicit
  StartDate overrides the anchor and may open a gap (an unallocated pause).

Overlap between explicit phases is rejected at the mutation boundary by
sync.go; this file assumes already-validated input.
*/
package forecast

import "sort"

// Segment is a contiguous date range owned by exactly one phase.
type Segment struct {
	PhaseID    PhaseID
	Allocation Hours
	Start      Day
	End        Day

	// Implicit marks the synthetic whole-project segment used when the
	// project has no phases. It is synthesized on read, never persisted.
	Implicit bool
}

func (s Segment) Range() DateRange { return DateRange{Start: s.Start, End: s.End} }

// SegmentPhases partitions [project.StartDate, effectiveEnd] into segments.
// For continuous projects the caller supplies the horizon (e.g., the end of
// the visible calendar); continuous projects never segment unboundedly.
func SegmentPhases(project Project, phases []Phase, horizon Day) ([]Segment, error) {
	if project.Continuous && horizon.IsZero() {
		return nil, ErrHorizonRequired
	}
	if !project.Continuous && project.EndDate.IsZero() {
		return nil, ErrMissingEndDate
	}
	end := project.EffectiveEnd(horizon)
	if end.Before(project.StartDate) {
		return nil, ErrInvalidRange
	}

	// Zero phases: the whole project is one implicit phase carrying the
	// full budget.
	if len(phases) == 0 {
		return []Segment{{
			Allocation: project.EstimatedHours,
			Start:      project.StartDate,
			End:        end,
			Implicit:   true,
		}}, nil
	}

	for _, ph := range phases {
		if ph.IsRecurring() {
			return nil, ErrMixedPhaseKinds
		}
	}

	ordered := make([]Phase, len(phases))
	copy(ordered, phases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EndDate.Before(ordered[j].EndDate)
	})

	segments := make([]Segment, 0, len(ordered))
	prevEnd := project.StartDate.AddDays(-1)
	for _, ph := range ordered {
		lower := ph.EffectiveStart(prevEnd)
		if lower.Before(project.StartDate) {
			lower = project.StartDate
		}
		upper := MinDay(ph.EndDate, end)
		if upper.Before(lower) {
			// Entirely outside the computed range, or emptied by clipping.
			// Nothing to own here.
			prevEnd = MaxDay(prevEnd, ph.EndDate)
			continue
		}
		segments = append(segments, Segment{
			PhaseID:    ph.ID,
			Allocation: ph.Allocation,
			Start:      lower,
			End:        upper,
		})
		prevEnd = MaxDay(prevEnd, ph.EndDate)
	}
	return segments, nil
}

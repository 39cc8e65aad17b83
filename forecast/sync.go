/*
sync.go - Project/Phase date synchronization

PURPOSE:
  The invariant keeper between a Project's date range and its Phases'
  collective date range. Invoked by orchestration after every phase
  create/update/delete and every project date edit, BEFORE persisting.

INVARIANTS (hold after every call that returns nil error):
  1. Every phase's range is inside the project's range.
  2. The project's start equals the earliest phase start (or inherited
     start) and, for non-continuous projects, its end equals the latest
     phase end, whenever phases exist.
  3. No two non-recurring phases overlap.
  4. Non-continuous projects have a concrete end date.
  5. A phase with remaining allocation ending in the past is flagged,
     not blocked (historical imports must stay possible).

CORRECTION POLICY:
  Phases are the primary unit of planning. A phase reaching beyond the
  project's bounds never rejects - the project is GROWN to fit, and the
  correction comes back in the result so orchestration can surface it as a
  notice. Shrinking happens symmetrically when the last phase is deleted
  or moved in. Overlap, by contrast, is always rejected: there is no safe
  default resolution, so the conflicting phase IDs come back as an error.

PURITY:
  No I/O. The caller persists the corrected project and the validated
  phases atomically, under a single-writer-per-project discipline, because
  correctness depends on seeing a consistent snapshot of all phases.
*/
package forecast

import (
	"fmt"
	"sort"
)

// ChangeKind identifies which mutation triggered synchronization.
type ChangeKind string

const (
	ChangePhaseCreated ChangeKind = "phase_created"
	ChangePhaseUpdated ChangeKind = "phase_updated"
	ChangePhaseDeleted ChangeKind = "phase_deleted"
	ChangeProjectDates ChangeKind = "project_dates"
)

// Correction describes one auto-applied project adjustment. Corrections are
// surfaced to the user as notices; they are never silent.
type Correction struct {
	Field    string // "startDate" or "endDate"
	Previous Day
	Updated  Day
	Reason   string
}

func (c Correction) String() string {
	return fmt.Sprintf("%s: %s -> %s (%s)", c.Field, c.Previous, c.Updated, c.Reason)
}

// SyncResult is the outcome of a successful synchronization.
type SyncResult struct {
	// Project is the corrected project, or nil when no correction was
	// needed. The caller persists it alongside the phase change.
	Project *Project

	Corrections []Correction

	// Warnings carries soft-rule flags (past-deadline phases with
	// remaining allocation). Never blocking.
	Warnings []string
}

// SyncProjectPhaseDates validates the phase set against the project and
// computes any corrective project adjustment. It never partially applies a
// change: either the result describes a consistent state, or a typed error
// explains the rejection.
//
// Calling it twice in a row (feeding the corrected project back in) yields
// no further corrections: synchronization is idempotent.
func SyncProjectPhaseDates(project Project, phases []Phase, change ChangeKind, now Day) (SyncResult, error) {
	var res SyncResult

	if err := ValidateProject(project); err != nil {
		return res, err
	}
	for _, ph := range phases {
		if err := ValidatePhase(ph, project.ID); err != nil {
			return res, err
		}
	}
	if err := checkPhaseKinds(phases); err != nil {
		return res, err
	}

	// No phases left (or none yet): the project keeps its own dates and
	// falls back to the implicit whole-project phase on read.
	if len(phases) == 0 {
		return res, nil
	}

	resolved, err := resolveRanges(project, phases)
	if err != nil {
		return res, err
	}

	minStart := resolved[0].rng.Start
	maxEnd := resolved[0].phase.EndDate
	for _, r := range resolved[1:] {
		minStart = MinDay(minStart, r.rng.Start)
		maxEnd = MaxDay(maxEnd, r.phase.EndDate)
	}

	corrected := project
	if !minStart.Equal(project.StartDate) {
		reason := "project start aligned to first phase"
		if minStart.Before(project.StartDate) {
			reason = "project extended to contain phase start"
		}
		res.Corrections = append(res.Corrections, Correction{
			Field: "startDate", Previous: project.StartDate, Updated: minStart, Reason: reason,
		})
		corrected.StartDate = minStart
	}
	if !project.Continuous && !maxEnd.Equal(project.EndDate) {
		reason := "project end aligned to last phase"
		if maxEnd.After(project.EndDate) {
			reason = "project extended to contain phase end"
		}
		res.Corrections = append(res.Corrections, Correction{
			Field: "endDate", Previous: project.EndDate, Updated: maxEnd, Reason: reason,
		})
		corrected.EndDate = maxEnd
	}
	if len(res.Corrections) > 0 {
		res.Project = &corrected
	}

	// Soft rule: a past deadline with hours still allocated is suspicious
	// but legal (historical data). Flag it, don't block it.
	if !now.IsZero() {
		for _, r := range resolved {
			if r.phase.EndDate.Before(now) && r.phase.Allocation.IsPositive() {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"phase %s ends %s, in the past, with %s hours still allocated",
					r.phase.ID, r.phase.EndDate, r.phase.Allocation))
			}
		}
	}

	return res, nil
}

// checkPhaseKinds enforces mutual exclusivity: a project holds either
// ordinary (non-recurring) phases or exactly one recurring template.
func checkPhaseKinds(phases []Phase) error {
	recurring := 0
	for _, ph := range phases {
		if ph.IsRecurring() {
			recurring++
		}
	}
	if recurring > 0 && len(phases) > 1 {
		return ErrMixedPhaseKinds
	}
	return nil
}

type resolvedPhase struct {
	phase Phase
	rng   DateRange
}

// resolveRanges orders phases by end date, resolves anchored starts, and
// rejects overlap between non-recurring phases.
func resolveRanges(project Project, phases []Phase) ([]resolvedPhase, error) {
	ordered := make([]Phase, len(phases))
	copy(ordered, phases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EndDate.Before(ordered[j].EndDate)
	})

	resolved := make([]resolvedPhase, 0, len(ordered))
	prevEnd := project.StartDate.AddDays(-1)
	for i := range ordered {
		ph := ordered[i]
		start := ph.EffectiveStart(prevEnd)
		if ph.EndDate.Before(start) {
			return nil, fmt.Errorf("phase %s: %w", ph.ID, ErrInvalidRange)
		}
		if len(resolved) > 0 && !ph.IsRecurring() {
			prev := resolved[len(resolved)-1]
			if !prev.phase.IsRecurring() && start.BeforeOrEqual(prev.rng.End) {
				return nil, &OverlapError{
					ProjectID: project.ID,
					PhaseIDs:  [2]PhaseID{prev.phase.ID, ph.ID},
					Ranges:    [2]DateRange{prev.rng, {Start: start, End: ph.EndDate}},
				}
			}
		}
		resolved = append(resolved, resolvedPhase{phase: ph, rng: DateRange{Start: start, End: ph.EndDate}})
		prevEnd = MaxDay(prevEnd, ph.EndDate)
	}
	return resolved, nil
}

package forecast

import "fmt"

// ValidateProject checks a project's structural invariants. Malformed input
// is a programmer/client error, raised synchronously and never defaulted.
func ValidateProject(p Project) error {
	if !p.EstimatedHours.IsPositive() {
		return fmt.Errorf("project %s: %w", p.ID, ErrNonPositiveAllocation)
	}
	if p.Continuous {
		return nil
	}
	if p.EndDate.IsZero() {
		return fmt.Errorf("project %s: %w", p.ID, ErrMissingEndDate)
	}
	if !p.EndDate.After(p.StartDate) {
		return fmt.Errorf("project %s: %w", p.ID, ErrInvalidRange)
	}
	return nil
}

// ValidatePhase checks a single phase in isolation. Cross-phase rules
// (overlap, mutual exclusivity) live in sync.go, which sees the full set.
func ValidatePhase(ph Phase, owner ProjectID) error {
	if ph.ProjectID == "" {
		return fmt.Errorf("phase %s: %w", ph.ID, ErrMissingProjectID)
	}
	if owner != "" && ph.ProjectID != owner {
		return fmt.Errorf("phase %s belongs to project %s, not %s: %w",
			ph.ID, ph.ProjectID, owner, ErrMissingProjectID)
	}
	if !ph.Allocation.IsPositive() {
		return fmt.Errorf("phase %s: %w", ph.ID, ErrNonPositiveAllocation)
	}
	if ph.StartDate != nil && ph.EndDate.Before(*ph.StartDate) {
		return fmt.Errorf("phase %s: %w", ph.ID, ErrInvalidRange)
	}
	if ph.Recurring != nil {
		if err := ph.Recurring.Validate(); err != nil {
			return fmt.Errorf("phase %s: %w", ph.ID, err)
		}
	}
	return nil
}

// ValidateHoliday checks a holiday span.
func ValidateHoliday(h Holiday) error {
	if h.End.Before(h.Start) {
		return fmt.Errorf("holiday %s: %w", h.ID, ErrInvalidRange)
	}
	return nil
}

// ValidateEvent checks a calendar event's time span.
func ValidateEvent(e CalendarEvent) error {
	if !e.End.After(e.Start) {
		return fmt.Errorf("event %s: %w", e.ID, ErrInvalidRange)
	}
	return nil
}

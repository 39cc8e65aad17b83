/*
errors.go - Centralized error types for the forecasting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculation functions raise input errors for malformed arguments;
  business-rule conditions (phase overlap) come back as structured
  rejections so orchestration can present them to the user.

ERROR CATEGORIES:
  1. Input errors       - Malformed arguments (programmer error)
  2. Invariant errors   - Business-rule violations from date sync
  3. Not-found errors   - Missing entities at the store boundary

Note that a span with zero working days is NOT an error anywhere in this
package. It is a legitimate degenerate state (e.g., a phase confined to a
holiday week) and is represented as an absent estimate.

USAGE:
  if errors.Is(err, forecast.ErrPhaseOverlap) {
      var overlap *forecast.OverlapError
      errors.As(err, &overlap) // overlap.PhaseIDs names the conflict
  }
*/
package forecast

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a range with end before start is
	// passed where that is disallowed (mutation paths; read paths treat it
	// as an empty query).
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrNonPositiveAllocation is returned for a phase or project budget
	// that is zero or negative.
	ErrNonPositiveAllocation = errors.New("allocation must be positive")

	// ErrInvalidRecurrence is returned for an inconsistent recurring
	// pattern (unknown type, interval < 1, missing pattern fields).
	ErrInvalidRecurrence = errors.New("invalid recurrence configuration")

	// ErrPhaseOverlap is returned when two non-recurring phases of the same
	// project overlap. Never auto-corrected; there is no safe default.
	ErrPhaseOverlap = errors.New("phases overlap")

	// ErrMixedPhaseKinds is returned when a project would hold both
	// ordinary phases and a recurring template, or more than one template.
	ErrMixedPhaseKinds = errors.New("project cannot mix ordinary and recurring phases")

	// ErrMissingEndDate is returned for a non-continuous project without a
	// concrete end date.
	ErrMissingEndDate = errors.New("non-continuous project requires an end date")

	// ErrHorizonRequired is returned when a continuous project is read
	// without a bounding horizon. Continuous projects are never expanded
	// into unbounded series.
	ErrHorizonRequired = errors.New("continuous project requires a horizon")

	// ErrMissingProjectID is returned for a phase not tied to a project.
	ErrMissingProjectID = errors.New("phase has no project id")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrPhaseNotFound is returned when a referenced phase doesn't exist.
	ErrPhaseNotFound = errors.New("phase not found")

	// ErrHolidayNotFound is returned when a referenced holiday doesn't exist.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrEventNotFound is returned when a referenced event doesn't exist.
	ErrEventNotFound = errors.New("event not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverlapError identifies the two phases whose date ranges collide.
type OverlapError struct {
	ProjectID ProjectID
	PhaseIDs  [2]PhaseID
	Ranges    [2]DateRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("phases %s %s and %s %s overlap",
		e.PhaseIDs[0], e.Ranges[0], e.PhaseIDs[1], e.Ranges[1])
}

func (e *OverlapError) Unwrap() error { return ErrPhaseOverlap }

// RecurrenceError explains which part of a recurring config is malformed.
type RecurrenceError struct {
	Field  string
	Detail string
}

func (e *RecurrenceError) Error() string {
	return fmt.Sprintf("invalid recurrence: %s: %s", e.Field, e.Detail)
}

func (e *RecurrenceError) Unwrap() error { return ErrInvalidRecurrence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a rejected business rule, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrNonPositiveAllocation) ||
		errors.Is(err, ErrInvalidRecurrence) ||
		errors.Is(err, ErrPhaseOverlap) ||
		errors.Is(err, ErrMixedPhaseKinds) ||
		errors.Is(err, ErrMissingEndDate) ||
		errors.Is(err, ErrHorizonRequired) ||
		errors.Is(err, ErrMissingProjectID)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrPhaseNotFound) ||
		errors.Is(err, ErrHolidayNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

/*
store.go - Persistence interfaces at the engine boundary

PURPOSE:
  Defines the interface between the computation core and storage. The
  engine itself never touches these - every calculation is a pure function
  of in-memory arguments - but orchestration composes them to assemble
  those arguments and to persist the outcome of date synchronization.

CONTRACT NOTES:
  - ListPhases returns a project's phases in end-date order, the only
    ordering the engine recognizes.
  - Legacy field normalization (older exports used different names for the
    phase allocation) happens INSIDE implementations, at read time. The
    engine sees one canonical Phase shape, always.
  - DayEstimates are never stored. There is deliberately no interface for
    them: they are recomputed from current state on every read.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - store/memory: in-memory store for tests
*/
package forecast

import "context"

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id ProjectID) (Project, error)
	// UpdateProject overwrites the stored project. Used both for direct
	// edits and for persisting sync corrections.
	UpdateProject(ctx context.Context, p Project) error
	// DeleteProject removes the project and cascades to its phases.
	DeleteProject(ctx context.Context, id ProjectID) error
	ListProjects(ctx context.Context) ([]Project, error)
}

// PhaseStore persists phases. Phases are exclusively owned by their project.
type PhaseStore interface {
	CreatePhase(ctx context.Context, ph Phase) error
	GetPhase(ctx context.Context, id PhaseID) (Phase, error)
	UpdatePhase(ctx context.Context, ph Phase) error
	DeletePhase(ctx context.Context, id PhaseID) error
	// ListPhases returns the project's phases ordered by end date.
	ListPhases(ctx context.Context, projectID ProjectID) ([]Phase, error)
}

// HolidayStore is the holiday source collaborator.
type HolidayStore interface {
	CreateHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id HolidayID) error
	// ListHolidays returns holidays whose span intersects the range.
	ListHolidays(ctx context.Context, r DateRange) ([]Holiday, error)
}

// EventStore is the calendar-event source collaborator.
type EventStore interface {
	CreateEvent(ctx context.Context, e CalendarEvent) error
	DeleteEvent(ctx context.Context, id EventID) error
	// ListEvents returns the project's events intersecting the range. An
	// empty projectID selects events not linked to any project.
	ListEvents(ctx context.Context, projectID ProjectID, r DateRange) ([]CalendarEvent, error)
}

// Store aggregates every persistence concern the orchestration layer needs.
type Store interface {
	ProjectStore
	PhaseStore
	HolidayStore
	EventStore

	// Reset clears all stored data. Used by the demo scenario loaders;
	// never called from production request paths.
	Reset(ctx context.Context) error
}

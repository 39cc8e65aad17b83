/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates projects, phases,
	holidays, and calendar events that demonstrate specific features.

AVAILABLE SCENARIOS:

	simple-deadline:    One project, no phases, even spread to a deadline
	phased-launch:      Sequential phases with a holiday week in the middle
	recurring-retainer: Continuous project with a weekly recurring template
	busy-calendar:      Scheduled events overriding parts of the forecast

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create projects
 3. Add phases, holidays, and events for the chosen scenario

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "phased-launch"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: CRUD and estimate handlers the demo data feeds
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vault/forecast-engine/forecast"
)

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "simple-deadline",
		Name:        "Simple Deadline",
		Description: "One project with a fixed deadline, budget spread evenly over working days",
	},
	{
		ID:          "phased-launch",
		Name:        "Phased Launch",
		Description: "Design, build, and polish phases in sequence, with a holiday week",
	},
	{
		ID:          "recurring-retainer",
		Name:        "Recurring Retainer",
		Description: "Continuous client retainer with a weekly recurring allocation",
	},
	{
		ID:          "busy-calendar",
		Name:        "Busy Calendar",
		Description: "Scheduled meetings and work sessions overriding the forecast",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	var err error
	switch req.ScenarioID {
	case "simple-deadline":
		err = h.loadSimpleDeadlineScenario(ctx)
	case "phased-launch":
		err = h.loadPhasedLaunchScenario(ctx)
	case "recurring-retainer":
		err = h.loadRecurringRetainerScenario(ctx)
	case "busy-calendar":
		err = h.loadBusyCalendarScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// scenarioYear anchors demo data to the current calendar year so loaded
// scenarios always land on the visible part of the calendar.
func scenarioYear() int { return time.Now().UTC().Year() }

func (h *Handler) loadSimpleDeadlineScenario(ctx context.Context) error {
	year := scenarioYear()
	project := forecast.Project{
		ID:             "demo-report",
		Name:           "Annual Report",
		EstimatedHours: forecast.NewHours(40),
		StartDate:      forecast.NewDay(year, time.January, 1),
		EndDate:        forecast.NewDay(year, time.February, 15),
		WorkingDays:    forecast.BusinessWeekMask(),
	}
	return h.Store.CreateProject(ctx, project)
}

func (h *Handler) loadPhasedLaunchScenario(ctx context.Context) error {
	year := scenarioYear()
	project := forecast.Project{
		ID:             "demo-launch",
		Name:           "Product Launch",
		EstimatedHours: forecast.NewHours(240),
		StartDate:      forecast.NewDay(year, time.January, 6),
		EndDate:        forecast.NewDay(year, time.April, 30),
		WorkingDays:    forecast.BusinessWeekMask(),
	}
	if err := h.Store.CreateProject(ctx, project); err != nil {
		return err
	}

	// Anchored chain: each phase starts the day after the previous one ends.
	phases := []forecast.Phase{
		{
			ID: "demo-launch-design", ProjectID: project.ID, Name: "Design",
			EndDate:    forecast.NewDay(year, time.January, 31),
			Allocation: forecast.NewHours(60),
		},
		{
			ID: "demo-launch-build", ProjectID: project.ID, Name: "Build",
			EndDate:    forecast.NewDay(year, time.March, 31),
			Allocation: forecast.NewHours(140),
		},
		{
			ID: "demo-launch-polish", ProjectID: project.ID, Name: "Polish",
			EndDate:    forecast.NewDay(year, time.April, 30),
			Allocation: forecast.NewHours(40),
		},
	}
	for _, ph := range phases {
		if err := h.Store.CreatePhase(ctx, ph); err != nil {
			return err
		}
	}

	// A mid-project holiday week; the build phase's budget squeezes into its
	// remaining working days.
	return h.Store.CreateHoliday(ctx, forecast.Holiday{
		ID:    "demo-launch-break",
		Name:  "Company Retreat",
		Start: forecast.NewDay(year, time.February, 17),
		End:   forecast.NewDay(year, time.February, 21),
	})
}

func (h *Handler) loadRecurringRetainerScenario(ctx context.Context) error {
	year := scenarioYear()
	project := forecast.Project{
		ID:             "demo-retainer",
		Name:           "Client Retainer",
		EstimatedHours: forecast.NewHours(520),
		StartDate:      forecast.NewDay(year, time.January, 1),
		Continuous:     true,
		WorkingDays:    forecast.BusinessWeekMask(),
	}
	if err := h.Store.CreateProject(ctx, project); err != nil {
		return err
	}

	// Ten hours due every Friday, spread across that week's working days.
	return h.Store.CreatePhase(ctx, forecast.Phase{
		ID: "demo-retainer-weekly", ProjectID: project.ID, Name: "Weekly Delivery",
		EndDate:    forecast.NewDay(year, time.December, 31),
		Allocation: forecast.NewHours(10),
		Recurring: &forecast.RecurringConfig{
			Type:      forecast.RecurWeekly,
			Interval:  1,
			WeeklyDay: time.Friday,
		},
	})
}

func (h *Handler) loadBusyCalendarScenario(ctx context.Context) error {
	year := scenarioYear()
	project := forecast.Project{
		ID:             "demo-migration",
		Name:           "Data Migration",
		EstimatedHours: forecast.NewHours(80),
		StartDate:      forecast.NewDay(year, time.March, 3),
		EndDate:        forecast.NewDay(year, time.March, 31),
		WorkingDays:    forecast.BusinessWeekMask(),
	}
	if err := h.Store.CreateProject(ctx, project); err != nil {
		return err
	}

	// Scheduled sessions take over their days: the calendar shows the booked
	// hours there instead of the computed estimate.
	events := []forecast.CalendarEvent{
		{
			ID: "demo-migration-kickoff", ProjectID: project.ID, Title: "Kickoff",
			Start:     time.Date(year, time.March, 3, 9, 0, 0, 0, time.UTC),
			End:       time.Date(year, time.March, 3, 12, 0, 0, 0, time.UTC),
			Completed: true,
		},
		{
			ID: "demo-migration-dryrun", ProjectID: project.ID, Title: "Dry Run",
			Start: time.Date(year, time.March, 12, 13, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.March, 12, 17, 0, 0, 0, time.UTC),
		},
		{
			ID: "demo-migration-cutover", ProjectID: project.ID, Title: "Cutover Window",
			Start: time.Date(year, time.March, 28, 20, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.March, 29, 4, 0, 0, 0, time.UTC),
		},
	}
	for _, e := range events {
		if err := h.Store.CreateEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

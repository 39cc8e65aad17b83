/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Day-granularity fields are "2006-01-02" strings; event instants are
  RFC 3339. Hour quantities travel as JSON numbers (floats); the decimal
  precision lives inside the engine, the API is presentation.

VALIDATION:
  Structural validation (parseable dates, known recurrence types) is done
  when converting a request to domain types; scheduling-rule validation
  (overlap, budget sign) belongs to the forecast package.
*/
package api

import (
	"fmt"
	"time"

	"github.com/vault/forecast-engine/forecast"
)

// =============================================================================
// PROJECTS
// =============================================================================

type ProjectDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	EstimatedHours float64 `json:"estimated_hours"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date,omitempty"`
	Continuous     bool    `json:"continuous"`
	WorkingDays    []bool  `json:"working_days"` // Sunday..Saturday
}

type ProjectRequest struct {
	Name           string  `json:"name"`
	EstimatedHours float64 `json:"estimated_hours"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date,omitempty"`
	Continuous     bool    `json:"continuous"`
	WorkingDays    []bool  `json:"working_days,omitempty"`
}

func projectToDTO(p forecast.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:             string(p.ID),
		Name:           p.Name,
		EstimatedHours: p.EstimatedHours.Float64(),
		StartDate:      p.StartDate.String(),
		Continuous:     p.Continuous,
		WorkingDays:    maskToSlice(p.WorkingDays),
	}
	if !p.Continuous {
		dto.EndDate = p.EndDate.String()
	}
	return dto
}

func (r ProjectRequest) toDomain(id forecast.ProjectID) (forecast.Project, error) {
	start, err := forecast.ParseDay(r.StartDate)
	if err != nil {
		return forecast.Project{}, fmt.Errorf("start_date: %w", err)
	}
	p := forecast.Project{
		ID:             id,
		Name:           r.Name,
		EstimatedHours: forecast.NewHours(r.EstimatedHours),
		StartDate:      start,
		Continuous:     r.Continuous,
		WorkingDays:    sliceToMask(r.WorkingDays),
	}
	if !r.Continuous {
		if r.EndDate == "" {
			return forecast.Project{}, forecast.ErrMissingEndDate
		}
		if p.EndDate, err = forecast.ParseDay(r.EndDate); err != nil {
			return forecast.Project{}, fmt.Errorf("end_date: %w", err)
		}
	}
	return p, nil
}

func maskToSlice(m forecast.WeekdayMask) []bool {
	out := make([]bool, 7)
	copy(out, m[:])
	return out
}

func sliceToMask(s []bool) forecast.WeekdayMask {
	if len(s) != 7 {
		return forecast.DefaultWeekdayMask()
	}
	var m forecast.WeekdayMask
	copy(m[:], s)
	return m
}

// =============================================================================
// PHASES
// =============================================================================

type RecurringDTO struct {
	Type           string `json:"type"`
	Interval       int    `json:"interval"`
	WeeklyDay      *int   `json:"weekly_day,omitempty"`
	MonthlyPattern string `json:"monthly_pattern,omitempty"`
	MonthlyDate    *int   `json:"monthly_date,omitempty"`
	MonthlyWeek    *int   `json:"monthly_week,omitempty"`
	MonthlyWeekday *int   `json:"monthly_weekday,omitempty"`
}

type PhaseDTO struct {
	ID              string        `json:"id"`
	ProjectID       string        `json:"project_id"`
	Name            string        `json:"name"`
	StartDate       string        `json:"start_date,omitempty"`
	EndDate         string        `json:"end_date"`
	AllocationHours float64       `json:"allocation_hours"`
	Recurring       *RecurringDTO `json:"recurring,omitempty"`
}

type PhaseRequest struct {
	Name            string        `json:"name"`
	StartDate       string        `json:"start_date,omitempty"`
	EndDate         string        `json:"end_date"`
	AllocationHours float64       `json:"allocation_hours"`
	Recurring       *RecurringDTO `json:"recurring,omitempty"`
}

func phaseToDTO(ph forecast.Phase) PhaseDTO {
	dto := PhaseDTO{
		ID:              string(ph.ID),
		ProjectID:       string(ph.ProjectID),
		Name:            ph.Name,
		EndDate:         ph.EndDate.String(),
		AllocationHours: ph.Allocation.Float64(),
	}
	if ph.StartDate != nil {
		dto.StartDate = ph.StartDate.String()
	}
	if cfg := ph.Recurring; cfg != nil {
		r := &RecurringDTO{
			Type:           string(cfg.Type),
			Interval:       cfg.Interval,
			MonthlyPattern: string(cfg.MonthlyPattern),
		}
		switch cfg.Type {
		case forecast.RecurWeekly:
			wd := int(cfg.WeeklyDay)
			r.WeeklyDay = &wd
		case forecast.RecurMonthly:
			if cfg.MonthlyPattern == forecast.MonthlyByDate {
				md := cfg.MonthlyDate
				r.MonthlyDate = &md
			} else {
				mw, mwd := cfg.MonthlyWeek, int(cfg.MonthlyWeekday)
				r.MonthlyWeek = &mw
				r.MonthlyWeekday = &mwd
			}
		}
		dto.Recurring = r
	}
	return dto
}

func (r PhaseRequest) toDomain(id forecast.PhaseID, projectID forecast.ProjectID) (forecast.Phase, error) {
	ph := forecast.Phase{
		ID:         id,
		ProjectID:  projectID,
		Name:       r.Name,
		Allocation: forecast.NewHours(r.AllocationHours),
	}
	var err error
	if ph.EndDate, err = forecast.ParseDay(r.EndDate); err != nil {
		return forecast.Phase{}, fmt.Errorf("end_date: %w", err)
	}
	if r.StartDate != "" {
		d, err := forecast.ParseDay(r.StartDate)
		if err != nil {
			return forecast.Phase{}, fmt.Errorf("start_date: %w", err)
		}
		ph.StartDate = &d
	}
	if r.Recurring != nil {
		cfg := &forecast.RecurringConfig{
			Type:           forecast.RecurrenceType(r.Recurring.Type),
			Interval:       r.Recurring.Interval,
			MonthlyPattern: forecast.MonthlyPattern(r.Recurring.MonthlyPattern),
		}
		if r.Recurring.WeeklyDay != nil {
			cfg.WeeklyDay = time.Weekday(*r.Recurring.WeeklyDay)
		}
		if r.Recurring.MonthlyDate != nil {
			cfg.MonthlyDate = *r.Recurring.MonthlyDate
		}
		if r.Recurring.MonthlyWeek != nil {
			cfg.MonthlyWeek = *r.Recurring.MonthlyWeek
		}
		if r.Recurring.MonthlyWeekday != nil {
			cfg.MonthlyWeekday = time.Weekday(*r.Recurring.MonthlyWeekday)
		}
		ph.Recurring = cfg
	}
	return ph, nil
}

// =============================================================================
// HOLIDAYS / EVENTS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type HolidayRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func holidayToDTO(h forecast.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        string(h.ID),
		Name:      h.Name,
		StartDate: h.Start.String(),
		EndDate:   h.End.String(),
	}
}

type EventDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Completed bool   `json:"completed"`
}

type EventRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Completed bool   `json:"completed"`
}

func eventToDTO(e forecast.CalendarEvent) EventDTO {
	return EventDTO{
		ID:        string(e.ID),
		ProjectID: string(e.ProjectID),
		Title:     e.Title,
		Start:     e.Start.UTC().Format(time.RFC3339),
		End:       e.End.UTC().Format(time.RFC3339),
		Completed: e.Completed,
	}
}

func (r EventRequest) toDomain(id forecast.EventID) (forecast.CalendarEvent, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return forecast.CalendarEvent{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return forecast.CalendarEvent{}, fmt.Errorf("end: %w", err)
	}
	return forecast.CalendarEvent{
		ID:        id,
		ProjectID: forecast.ProjectID(r.ProjectID),
		Title:     r.Title,
		Start:     start,
		End:       end,
		Completed: r.Completed,
	}, nil
}

// =============================================================================
// ESTIMATES / DISPLAY
// =============================================================================

// DayDisplayDTO is one resolved day on the forecast calendar.
type DayDisplayDTO struct {
	Date    string     `json:"date"`
	Hours   float64    `json:"hours"`
	Source  string     `json:"source"` // "estimate", "event", or "none"
	PhaseID string     `json:"phase_id,omitempty"`
	Events  []EventDTO `json:"events,omitempty"`
}

// MutationResponse wraps a mutated entity together with any project
// corrections the date synchronization applied. Corrections are notices for
// the user, not errors.
type MutationResponse struct {
	Project     *ProjectDTO     `json:"project,omitempty"`
	Phase       *PhaseDTO       `json:"phase,omitempty"`
	Corrections []CorrectionDTO `json:"corrections,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type CorrectionDTO struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Updated  string `json:"updated"`
	Reason   string `json:"reason"`
}

func correctionsToDTO(cs []forecast.Correction) []CorrectionDTO {
	if len(cs) == 0 {
		return nil
	}
	out := make([]CorrectionDTO, len(cs))
	for i, c := range cs {
		out[i] = CorrectionDTO{
			Field:    c.Field,
			Previous: c.Previous.String(),
			Updated:  c.Updated.String(),
			Reason:   c.Reason,
		}
	}
	return out
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

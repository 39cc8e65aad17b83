// Package memory provides an in-memory forecast.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vault/forecast-engine/forecast"
)

type Store struct {
	mu       sync.RWMutex
	projects map[forecast.ProjectID]forecast.Project
	phases   map[forecast.PhaseID]forecast.Phase
	holidays map[forecast.HolidayID]forecast.Holiday
	events   map[forecast.EventID]forecast.CalendarEvent
}

func New() *Store {
	return &Store{
		projects: make(map[forecast.ProjectID]forecast.Project),
		phases:   make(map[forecast.PhaseID]forecast.Phase),
		holidays: make(map[forecast.HolidayID]forecast.Holiday),
		events:   make(map[forecast.EventID]forecast.CalendarEvent),
	}
}

// Reset clears everything. Demo scenario loading starts from a blank slate.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[forecast.ProjectID]forecast.Project)
	s.phases = make(map[forecast.PhaseID]forecast.Phase)
	s.holidays = make(map[forecast.HolidayID]forecast.Holiday)
	s.events = make(map[forecast.EventID]forecast.CalendarEvent)
	return nil
}

// -----------------------------------------------------------------------------
// Projects
// -----------------------------------------------------------------------------

func (s *Store) CreateProject(_ context.Context, p forecast.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

func (s *Store) GetProject(_ context.Context, id forecast.ProjectID) (forecast.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return forecast.Project{}, forecast.ErrProjectNotFound
	}
	return p, nil
}

func (s *Store) UpdateProject(_ context.Context, p forecast.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return forecast.ErrProjectNotFound
	}
	s.projects[p.ID] = p
	return nil
}

// DeleteProject cascades to the project's phases.
func (s *Store) DeleteProject(_ context.Context, id forecast.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return forecast.ErrProjectNotFound
	}
	delete(s.projects, id)
	for phID, ph := range s.phases {
		if ph.ProjectID == id {
			delete(s.phases, phID)
		}
	}
	return nil
}

func (s *Store) ListProjects(_ context.Context) ([]forecast.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]forecast.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Phases
// -----------------------------------------------------------------------------

func (s *Store) CreatePhase(_ context.Context, ph forecast.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[ph.ProjectID]; !ok {
		return forecast.ErrProjectNotFound
	}
	s.phases[ph.ID] = ph
	return nil
}

func (s *Store) GetPhase(_ context.Context, id forecast.PhaseID) (forecast.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ph, ok := s.phases[id]
	if !ok {
		return forecast.Phase{}, forecast.ErrPhaseNotFound
	}
	return ph, nil
}

func (s *Store) UpdatePhase(_ context.Context, ph forecast.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phases[ph.ID]; !ok {
		return forecast.ErrPhaseNotFound
	}
	s.phases[ph.ID] = ph
	return nil
}

func (s *Store) DeletePhase(_ context.Context, id forecast.PhaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phases[id]; !ok {
		return forecast.ErrPhaseNotFound
	}
	delete(s.phases, id)
	return nil
}

// ListPhases returns the project's phases ordered by end date.
func (s *Store) ListPhases(_ context.Context, projectID forecast.ProjectID) ([]forecast.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []forecast.Phase
	for _, ph := range s.phases {
		if ph.ProjectID == projectID {
			out = append(out, ph)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Holidays
// -----------------------------------------------------------------------------

func (s *Store) CreateHoliday(_ context.Context, h forecast.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[h.ID] = h
	return nil
}

func (s *Store) DeleteHoliday(_ context.Context, id forecast.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[id]; !ok {
		return forecast.ErrHolidayNotFound
	}
	delete(s.holidays, id)
	return nil
}

func (s *Store) ListHolidays(_ context.Context, r forecast.DateRange) ([]forecast.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []forecast.Holiday
	for _, h := range s.holidays {
		if h.Start.BeforeOrEqual(r.End) && h.End.AfterOrEqual(r.Start) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

func (s *Store) CreateEvent(_ context.Context, e forecast.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id forecast.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return forecast.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) ListEvents(_ context.Context, projectID forecast.ProjectID, r forecast.DateRange) ([]forecast.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rangeStart := r.Start.Time
	rangeEnd := r.End.AddDays(1).Time
	var out []forecast.CalendarEvent
	for _, e := range s.events {
		if e.ProjectID == projectID && e.Start.Before(rangeEnd) && e.End.After(rangeStart) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

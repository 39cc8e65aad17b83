/*
handlers.go - HTTP API handlers for the forecasting engine

PURPOSE:
  Exposes the forecasting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Projects:
    GET    /api/projects                   List projects
    POST   /api/projects                   Create project
    GET    /api/projects/{id}              Get project
    PUT    /api/projects/{id}              Update project (dates re-synced)
    DELETE /api/projects/{id}              Delete project (+ its phases)
    GET    /api/projects/{id}/estimates    Resolved per-day forecast

  Phases:
    GET    /api/projects/{id}/phases       List a project's phases
    POST   /api/projects/{id}/phases       Create phase
    PUT    /api/phases/{id}                Update phase
    DELETE /api/phases/{id}                Delete phase

  Holidays / Events:
    GET/POST /api/holidays, DELETE /api/holidays/{id}
    GET/POST /api/events,   DELETE /api/events/{id}

MUTATION FLOW:
  Every phase or project-date mutation runs the date synchronization
  BEFORE anything is persisted. Rejections (overlap, bad allocation) come
  back as 422 naming the conflicting phases; auto-corrections (project
  grown to fit a phase) are persisted and echoed in the response body so
  the client can surface the notice.

CONCURRENCY:
  A per-project mutex serializes the read-sync-persist sequence, since
  synchronization correctness depends on a consistent snapshot of all
  phases. Projects are independent; no cross-project locking.

ERROR HANDLING:
  - 400: Malformed input (bad dates, bad JSON)
  - 404: Entity not found
  - 422: Scheduling-rule rejection (overlap, mixed phase kinds, ...)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vault/forecast-engine/forecast"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store forecast.Store

	// Now is injectable for tests; defaults to forecast.Today.
	Now func() forecast.Day

	mu    sync.Mutex
	locks map[forecast.ProjectID]*sync.Mutex

	// currentScenario tracks the loaded demo scenario (scenarios.go).
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store forecast.Store) *Handler {
	return &Handler{
		Store: store,
		Now:   forecast.Today,
		locks: make(map[forecast.ProjectID]*sync.Mutex),
	}
}

// projectLock returns the mutex serializing writes for one project.
func (h *Handler) projectLock(id forecast.ProjectID) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[id]
	if !ok {
		l = &sync.Mutex{}
		h.locks[id] = l
	}
	return l
}

func newID() string { return uuid.NewString() }

// =============================================================================
// PROJECTS
// =============================================================================

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, projectToDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	project, err := req.toDomain(forecast.ProjectID(newID()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project", err)
		return
	}
	if err := forecast.ValidateProject(project); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.CreateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, projectToDTO(project))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := forecast.ProjectID(chi.URLParam(r, "id"))
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectToDTO(project))
}

// UpdateProject edits a project. Date changes are reconciled against the
// phase set: the stored result always satisfies the date invariants, and
// any adjustment the reconciliation made to the requested dates is
// reported as a correction.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := forecast.ProjectID(chi.URLParam(r, "id"))

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	project, err := req.toDomain(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project", err)
		return
	}

	lock := h.projectLock(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := h.Store.GetProject(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	phases, err := h.Store.ListPhases(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load phases", err)
		return
	}

	res, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangeProjectDates, h.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res.Project != nil {
		project = *res.Project
	}
	if err := h.Store.UpdateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update project", err)
		return
	}

	dto := projectToDTO(project)
	writeJSON(w, http.StatusOK, MutationResponse{
		Project:     &dto,
		Corrections: correctionsToDTO(res.Corrections),
		Warnings:    res.Warnings,
	})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := forecast.ProjectID(chi.URLParam(r, "id"))

	lock := h.projectLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := h.Store.DeleteProject(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PHASES
// =============================================================================

func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	id := forecast.ProjectID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetProject(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	phases, err := h.Store.ListPhases(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list phases", err)
		return
	}
	dtos := make([]PhaseDTO, 0, len(phases))
	for _, ph := range phases {
		dtos = append(dtos, phaseToDTO(ph))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	projectID := forecast.ProjectID(chi.URLParam(r, "id"))

	var req PhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	phase, err := req.toDomain(forecast.PhaseID(newID()), projectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid phase", err)
		return
	}

	h.mutatePhase(w, r, projectID, forecast.ChangePhaseCreated, phase, nil)
}

func (h *Handler) UpdatePhase(w http.ResponseWriter, r *http.Request) {
	phaseID := forecast.PhaseID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetPhase(r.Context(), phaseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req PhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	phase, err := req.toDomain(phaseID, existing.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid phase", err)
		return
	}

	h.mutatePhase(w, r, existing.ProjectID, forecast.ChangePhaseUpdated, phase, nil)
}

func (h *Handler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	phaseID := forecast.PhaseID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetPhase(r.Context(), phaseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.mutatePhase(w, r, existing.ProjectID, forecast.ChangePhaseDeleted, forecast.Phase{}, &phaseID)
}

// mutatePhase runs the read-sync-persist sequence for one phase mutation
// under the project's lock. For creates/updates `phase` is the candidate;
// for deletes `removed` names the phase leaving the set.
func (h *Handler) mutatePhase(w http.ResponseWriter, r *http.Request, projectID forecast.ProjectID,
	change forecast.ChangeKind, phase forecast.Phase, removed *forecast.PhaseID) {

	lock := h.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	ctx := r.Context()
	project, err := h.Store.GetProject(ctx, projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stored, err := h.Store.ListPhases(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load phases", err)
		return
	}

	// Build the candidate phase set the synchronization will judge.
	candidate := make([]forecast.Phase, 0, len(stored)+1)
	for _, ph := range stored {
		if removed != nil && ph.ID == *removed {
			continue
		}
		if change == forecast.ChangePhaseUpdated && ph.ID == phase.ID {
			continue
		}
		candidate = append(candidate, ph)
	}
	if change == forecast.ChangePhaseCreated || change == forecast.ChangePhaseUpdated {
		candidate = append(candidate, phase)
	}

	res, err := forecast.SyncProjectPhaseDates(project, candidate, change, h.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Persist the phase change, then any project correction. The store
	// sees only states the synchronization has already blessed.
	switch change {
	case forecast.ChangePhaseCreated:
		err = h.Store.CreatePhase(ctx, phase)
	case forecast.ChangePhaseUpdated:
		err = h.Store.UpdatePhase(ctx, phase)
	case forecast.ChangePhaseDeleted:
		err = h.Store.DeletePhase(ctx, *removed)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist phase change", err)
		return
	}
	if res.Project != nil {
		if err := h.Store.UpdateProject(ctx, *res.Project); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist project correction", err)
			return
		}
	}

	resp := MutationResponse{
		Corrections: correctionsToDTO(res.Corrections),
		Warnings:    res.Warnings,
	}
	if res.Project != nil {
		dto := projectToDTO(*res.Project)
		resp.Project = &dto
	}
	status := http.StatusOK
	if change == forecast.ChangePhaseCreated {
		status = http.StatusCreated
	}
	if change != forecast.ChangePhaseDeleted {
		dto := phaseToDTO(phase)
		resp.Phase = &dto
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// ESTIMATES
// =============================================================================

// GetEstimates returns the resolved per-day forecast for a project over
// ?from=YYYY-MM-DD&to=YYYY-MM-DD. Every call recomputes from current
// state; nothing here is cached.
func (h *Handler) GetEstimates(w http.ResponseWriter, r *http.Request) {
	id := forecast.ProjectID(chi.URLParam(r, "id"))

	from, err := forecast.ParseDay(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", err)
		return
	}
	to, err := forecast.ParseDay(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", err)
		return
	}
	window := forecast.NewDateRange(from, to)
	if !window.IsValid() {
		writeError(w, http.StatusBadRequest, "'to' must not precede 'from'", nil)
		return
	}

	ctx := r.Context()
	project, err := h.Store.GetProject(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	phases, err := h.Store.ListPhases(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load phases", err)
		return
	}
	holidays, err := h.Store.ListHolidays(ctx, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}
	events, err := h.Store.ListEvents(ctx, id, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	estimates, err := forecast.ComputeDayEstimates(project, phases, holidays, window)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var out []DayDisplayDTO
	for _, day := range window.Days() {
		display := forecast.ResolveDayDisplay(day, id, forecast.EstimateFor(estimates, day), events)
		if display.Source == forecast.SourceNone {
			continue
		}
		dto := DayDisplayDTO{
			Date:   display.Date.String(),
			Hours:  display.Hours.Float64(),
			Source: string(display.Source),
		}
		if display.Source == forecast.SourceEstimate {
			if est := forecast.EstimateFor(estimates, day); est != nil {
				dto.PhaseID = string(est.PhaseID)
			}
		}
		for _, ev := range display.Events {
			dto.Events = append(dto.Events, eventToDTO(ev))
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := forecast.ParseDay(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", err)
		return
	}
	to, err := forecast.ParseDay(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", err)
		return
	}
	holidays, err := h.Store.ListHolidays(r.Context(), forecast.NewDateRange(from, to))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, holidayToDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := forecast.ParseDay(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	end, err := forecast.ParseDay(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}
	holiday := forecast.Holiday{
		ID:    forecast.HolidayID(newID()),
		Name:  req.Name,
		Start: start,
		End:   end,
	}
	if err := forecast.ValidateHoliday(holiday); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.CreateHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, holidayToDTO(holiday))
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := forecast.HolidayID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EVENTS
// =============================================================================

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := forecast.ParseDay(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", err)
		return
	}
	to, err := forecast.ParseDay(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", err)
		return
	}
	projectID := forecast.ProjectID(q.Get("project_id"))
	events, err := h.Store.ListEvents(r.Context(), projectID, forecast.NewDateRange(from, to))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	event, err := req.toDomain(forecast.EventID(newID()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}
	if err := forecast.ValidateEvent(event); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.CreateEvent(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, eventToDTO(event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := forecast.EventID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteEvent(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses. Business-rule
// rejections carry actionable messages (the overlap error names both
// conflicting phases), so the error text goes straight to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case forecast.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, forecast.ErrPhaseOverlap) || errors.Is(err, forecast.ErrMixedPhaseKinds):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case forecast.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

package api_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vault/forecast-engine/api"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]string{"scenario_id": id}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	router := newTestRouter(t)

	var got []api.ScenarioDTO
	rec := doJSON(t, router, http.MethodGet, "/api/scenarios", nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, got)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "simple-deadline")
	assert.Contains(t, ids, "phased-launch")
	assert.Contains(t, ids, "recurring-retainer")
	assert.Contains(t, ids, "busy-calendar")
}

func TestLoadUnknownScenario(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]string{"scenario_id": "nonsense"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadPhasedLaunchScenario(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "phased-launch")

	var projects []api.ProjectDTO
	rec := doJSON(t, router, http.MethodGet, "/api/projects", nil, &projects)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, projects, 1)
	assert.Equal(t, "demo-launch", projects[0].ID)

	var phases []api.PhaseDTO
	rec = doJSON(t, router, http.MethodGet, "/api/projects/demo-launch/phases", nil, &phases)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, phases, 3)
	// End-date order: design, build, polish.
	assert.Equal(t, "Design", phases[0].Name)
	assert.Equal(t, "Build", phases[1].Name)
	assert.Equal(t, "Polish", phases[2].Name)

	// The loaded data computes a forecast end to end.
	year := time.Now().UTC().Year()
	url := fmt.Sprintf("/api/projects/demo-launch/estimates?from=%d-01-06&to=%d-04-30", year, year)
	var days []api.DayDisplayDTO
	rec = doJSON(t, router, http.MethodGet, url, nil, &days)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, days)
}

func TestLoadScenarioResetsPreviousData(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "phased-launch")
	loadScenario(t, router, "simple-deadline")

	var projects []api.ProjectDTO
	rec := doJSON(t, router, http.MethodGet, "/api/projects", nil, &projects)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, projects, 1)
	assert.Equal(t, "demo-report", projects[0].ID)

	var current api.ScenarioDTO
	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", nil, &current)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "simple-deadline", current.ID)
}

func TestRecurringRetainerScenarioExpands(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "recurring-retainer")

	year := time.Now().UTC().Year()
	url := fmt.Sprintf("/api/projects/demo-retainer/estimates?from=%d-02-01&to=%d-02-28", year, year)
	var days []api.DayDisplayDTO
	rec := doJSON(t, router, http.MethodGet, url, nil, &days)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, days)
	for _, d := range days {
		assert.Equal(t, "estimate", d.Source)
		assert.Greater(t, d.Hours, 0.0)
	}
}

func TestBusyCalendarScenarioBlocksEstimates(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "busy-calendar")

	year := time.Now().UTC().Year()
	url := fmt.Sprintf("/api/projects/demo-migration/estimates?from=%d-03-01&to=%d-03-31", year, year)
	var days []api.DayDisplayDTO
	rec := doJSON(t, router, http.MethodGet, url, nil, &days)
	require.Equal(t, http.StatusOK, rec.Code)

	byDate := make(map[string]api.DayDisplayDTO, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}
	kickoff, ok := byDate[fmt.Sprintf("%d-03-03", year)]
	require.True(t, ok)
	assert.Equal(t, "event", kickoff.Source)
	assert.InDelta(t, 3.0, kickoff.Hours, 1e-9)
}

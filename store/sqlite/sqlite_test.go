package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vault/forecast-engine/forecast"
	"github.com/vault/forecast-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testProject(id string) forecast.Project {
	return forecast.Project{
		ID:             forecast.ProjectID(id),
		Name:           "Test Project",
		EstimatedHours: forecast.NewHours(120),
		StartDate:      forecast.NewDay(2025, time.January, 1),
		EndDate:        forecast.NewDay(2025, time.March, 31),
		WorkingDays:    forecast.BusinessWeekMask(),
	}
}

func TestProjectRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("proj-1")
	require.NoError(t, s.CreateProject(ctx, p))

	got, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, "120", got.EstimatedHours.String())
	assert.True(t, got.StartDate.Equal(p.StartDate))
	assert.True(t, got.EndDate.Equal(p.EndDate))
	assert.Equal(t, p.WorkingDays, got.WorkingDays)
	assert.False(t, got.Continuous)
}

func TestContinuousProjectHasNoEndDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("proj-cont")
	p.Continuous = true
	p.EndDate = forecast.Day{}
	require.NoError(t, s.CreateProject(ctx, p))

	got, err := s.GetProject(ctx, "proj-cont")
	require.NoError(t, err)
	assert.True(t, got.Continuous)
	assert.True(t, got.EndDate.IsZero())
}

func TestProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, forecast.ErrProjectNotFound)

	assert.ErrorIs(t, s.UpdateProject(ctx, testProject("missing")), forecast.ErrProjectNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, "missing"), forecast.ErrProjectNotFound)
}

func TestUpdateProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testProject("proj-1")
	require.NoError(t, s.CreateProject(ctx, p))

	p.Name = "Renamed"
	p.EndDate = forecast.NewDay(2025, time.April, 30)
	require.NoError(t, s.UpdateProject(ctx, p))

	got, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.EndDate.Equal(forecast.NewDay(2025, time.April, 30)))
}

func TestPhaseRoundtripOrdinary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, testProject("proj-1")))

	start := forecast.NewDay(2025, time.January, 10)
	ph := forecast.Phase{
		ID:         "ph-1",
		ProjectID:  "proj-1",
		Name:       "Design",
		StartDate:  &start,
		EndDate:    forecast.NewDay(2025, time.January, 31),
		Allocation: forecast.NewHours(40.5),
	}
	require.NoError(t, s.CreatePhase(ctx, ph))

	got, err := s.GetPhase(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, ph.Name, got.Name)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(start))
	assert.Equal(t, "40.5", got.Allocation.String())
	assert.Nil(t, got.Recurring)
}

func TestPhaseRoundtripRecurring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, testProject("proj-1")))

	cases := []forecast.RecurringConfig{
		{Type: forecast.RecurWeekly, Interval: 2, WeeklyDay: time.Monday},
		{Type: forecast.RecurMonthly, Interval: 1, MonthlyPattern: forecast.MonthlyByDate, MonthlyDate: 30},
		{Type: forecast.RecurMonthly, Interval: 1, MonthlyPattern: forecast.MonthlyByWeekday, MonthlyWeek: 2, MonthlyWeekday: time.Tuesday},
	}
	for i, cfg := range cases {
		cfg := cfg
		ph := forecast.Phase{
			ID:         forecast.PhaseID(string(rune('a' + i))),
			ProjectID:  "proj-1",
			Name:       "Recurring",
			EndDate:    forecast.NewDay(2025, time.March, 31),
			Allocation: forecast.NewHours(10),
			Recurring:  &cfg,
		}
		require.NoError(t, s.CreatePhase(ctx, ph))

		got, err := s.GetPhase(ctx, ph.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Recurring, "case %d", i)
		assert.Equal(t, cfg, *got.Recurring, "case %d", i)
	}
}

func TestUpdatePhaseClearsStaleRecurrence(t *testing.T) {
	// Flipping a recurring phase back to ordinary must not leave pattern
	// columns behind.
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, testProject("proj-1")))

	ph := forecast.Phase{
		ID: "ph-1", ProjectID: "proj-1", Name: "Weekly",
		EndDate:    forecast.NewDay(2025, time.March, 31),
		Allocation: forecast.NewHours(10),
		Recurring:  &forecast.RecurringConfig{Type: forecast.RecurWeekly, Interval: 1, WeeklyDay: time.Friday},
	}
	require.NoError(t, s.CreatePhase(ctx, ph))

	ph.Recurring = nil
	require.NoError(t, s.UpdatePhase(ctx, ph))

	got, err := s.GetPhase(ctx, "ph-1")
	require.NoError(t, err)
	assert.Nil(t, got.Recurring)
}

func TestListPhasesOrderedByEndDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, testProject("proj-1")))

	mk := func(id string, end forecast.Day) forecast.Phase {
		return forecast.Phase{
			ID: forecast.PhaseID(id), ProjectID: "proj-1", Name: id,
			EndDate: end, Allocation: forecast.NewHours(10),
		}
	}
	require.NoError(t, s.CreatePhase(ctx, mk("ph-late", forecast.NewDay(2025, time.March, 31))))
	require.NoError(t, s.CreatePhase(ctx, mk("ph-early", forecast.NewDay(2025, time.January, 31))))
	require.NoError(t, s.CreatePhase(ctx, mk("ph-mid", forecast.NewDay(2025, time.February, 28))))

	phases, err := s.ListPhases(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, phases, 3)
	assert.Equal(t, forecast.PhaseID("ph-early"), phases[0].ID)
	assert.Equal(t, forecast.PhaseID("ph-mid"), phases[1].ID)
	assert.Equal(t, forecast.PhaseID("ph-late"), phases[2].ID)
}

func TestDeleteProjectCascadesToPhases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, testProject("proj-1")))
	require.NoError(t, s.CreatePhase(ctx, forecast.Phase{
		ID: "ph-1", ProjectID: "proj-1", Name: "Doomed",
		EndDate: forecast.NewDay(2025, time.March, 31), Allocation: forecast.NewHours(10),
	}))

	require.NoError(t, s.DeleteProject(ctx, "proj-1"))

	_, err := s.GetPhase(ctx, "ph-1")
	assert.ErrorIs(t, err, forecast.ErrPhaseNotFound)
}

func TestListHolidaysIntersectsRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(id, name string, start, end forecast.Day) forecast.Holiday {
		return forecast.Holiday{ID: forecast.HolidayID(id), Name: name, Start: start, End: end}
	}
	require.NoError(t, s.CreateHoliday(ctx, mk("h-1", "New Year",
		forecast.NewDay(2025, time.January, 1), forecast.NewDay(2025, time.January, 1))))
	require.NoError(t, s.CreateHoliday(ctx, mk("h-2", "Spring Break",
		forecast.NewDay(2025, time.March, 28), forecast.NewDay(2025, time.April, 4))))
	require.NoError(t, s.CreateHoliday(ctx, mk("h-3", "Summer",
		forecast.NewDay(2025, time.July, 1), forecast.NewDay(2025, time.July, 14))))

	got, err := s.ListHolidays(ctx, forecast.DateRange{
		Start: forecast.NewDay(2025, time.February, 1),
		End:   forecast.NewDay(2025, time.March, 31),
	})
	require.NoError(t, err)
	// Only the straddling span intersects: h-1 is before, h-3 after.
	require.Len(t, got, 1)
	assert.Equal(t, forecast.HolidayID("h-2"), got[0].ID)
}

func TestListEventsFiltersByProjectAndRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(id, project string, start time.Time, dur time.Duration) forecast.CalendarEvent {
		return forecast.CalendarEvent{
			ID: forecast.EventID(id), ProjectID: forecast.ProjectID(project),
			Title: id, Start: start, End: start.Add(dur),
		}
	}
	jan15 := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateEvent(ctx, mk("ev-in", "proj-1", jan15, 2*time.Hour)))
	require.NoError(t, s.CreateEvent(ctx, mk("ev-other", "proj-2", jan15, time.Hour)))
	require.NoError(t, s.CreateEvent(ctx, mk("ev-out", "proj-1",
		time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC), time.Hour)))

	got, err := s.ListEvents(ctx, "proj-1", forecast.DateRange{
		Start: forecast.NewDay(2025, time.January, 1),
		End:   forecast.NewDay(2025, time.January, 31),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, forecast.EventID("ev-in"), got[0].ID)
	assert.True(t, got[0].Start.Equal(jan15))
	assert.InDelta(t, 2.0, got[0].End.Sub(got[0].Start).Hours(), 1e-9)
}

func TestListEventsUnlinkedSelectedByEmptyProjectID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jan15 := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateEvent(ctx, forecast.CalendarEvent{
		ID: "ev-floating", Title: "Dentist", Start: jan15, End: jan15.Add(time.Hour),
	}))
	require.NoError(t, s.CreateEvent(ctx, forecast.CalendarEvent{
		ID: "ev-linked", ProjectID: "proj-1", Title: "Standup",
		Start: jan15, End: jan15.Add(time.Hour),
	}))

	january := forecast.DateRange{
		Start: forecast.NewDay(2025, time.January, 1),
		End:   forecast.NewDay(2025, time.January, 31),
	}

	// Empty projectID selects events not linked to any project.
	got, err := s.ListEvents(ctx, "", january)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, forecast.EventID("ev-floating"), got[0].ID)
	assert.Empty(t, got[0].ProjectID)

	// A concrete projectID still excludes the unlinked event.
	got, err = s.ListEvents(ctx, "proj-1", january)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, forecast.EventID("ev-linked"), got[0].ID)
}

func TestEventCompletedFlagPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateEvent(ctx, forecast.CalendarEvent{
		ID: "ev-done", ProjectID: "proj-1", Title: "Done",
		Start: start, End: start.Add(time.Hour), Completed: true,
	}))

	got, err := s.ListEvents(ctx, "proj-1", forecast.DateRange{
		Start: forecast.NewDay(2025, time.January, 1),
		End:   forecast.NewDay(2025, time.January, 31),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Completed)
}

func TestMigrationFoldsLegacyAllocationColumn(t *testing.T) {
	// Rows written by older exports carry time_allocation only. Reopening
	// the database folds it into allocation_hours.
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateProject(context.Background(), testProject("proj-1")))
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO phases (id, project_id, name, end_date, time_allocation, created_at)
		VALUES ('ph-legacy', 'proj-1', 'Imported', '2025-03-31', '37.5', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetPhase(context.Background(), "ph-legacy")
	require.NoError(t, err)
	assert.Equal(t, "37.5", got.Allocation.String())
}

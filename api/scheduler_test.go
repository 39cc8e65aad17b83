package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vault/forecast-engine/api"
	"github.com/vault/forecast-engine/forecast"
	"github.com/vault/forecast-engine/store/memory"
)

func TestDeadlineWatcherFlagsPastDeadlines(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	project := forecast.Project{
		ID:             "proj-overdue",
		Name:           "Overdue",
		EstimatedHours: forecast.NewHours(100),
		StartDate:      forecast.NewDay(2025, time.January, 1),
		EndDate:        forecast.NewDay(2025, time.March, 31),
		WorkingDays:    forecast.BusinessWeekMask(),
	}
	require.NoError(t, store.CreateProject(ctx, project))
	require.NoError(t, store.CreatePhase(ctx, forecast.Phase{
		ID: "ph-overdue", ProjectID: project.ID, Name: "Slipped",
		EndDate:    forecast.NewDay(2025, time.January, 31),
		Allocation: forecast.NewHours(40),
	}))
	require.NoError(t, store.CreatePhase(ctx, forecast.Phase{
		ID: "ph-current", ProjectID: project.ID, Name: "On Track",
		EndDate:    forecast.NewDay(2025, time.March, 31),
		Allocation: forecast.NewHours(60),
	}))

	h := api.NewHandler(store)
	h.Now = func() forecast.Day { return forecast.NewDay(2025, time.March, 1) }

	watcher := api.NewDeadlineWatcher(store, h)
	require.Nil(t, watcher.LastRun(), "no report before the first pass")

	watcher.RunNow()

	report := watcher.LastRun()
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Checked)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "proj-overdue", report.Findings[0].ProjectID)
	require.Len(t, report.Findings[0].Warnings, 1)
	assert.Contains(t, report.Findings[0].Warnings[0], "ph-overdue")
}

func TestDeadlineWatcherCleanProject(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.CreateProject(ctx, forecast.Project{
		ID:             "proj-fine",
		Name:           "Fine",
		EstimatedHours: forecast.NewHours(40),
		StartDate:      forecast.NewDay(2025, time.January, 1),
		EndDate:        forecast.NewDay(2025, time.June, 30),
		WorkingDays:    forecast.BusinessWeekMask(),
	}))

	h := api.NewHandler(store)
	h.Now = func() forecast.Day { return forecast.NewDay(2025, time.March, 1) }

	watcher := api.NewDeadlineWatcher(store, h)
	watcher.RunNow()

	report := watcher.LastRun()
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Findings)
}

func TestDeadlineWatcherStartStop(t *testing.T) {
	store := memory.New()
	h := api.NewHandler(store)

	watcher := api.NewDeadlineWatcher(store, h)
	watcher.CheckInterval = time.Minute
	watcher.Start()
	watcher.Stop()

	// The startup pass runs even with no data.
	assert.NotNil(t, watcher.LastRun())
}

package forecast_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vault/forecast-engine/forecast"
)

func syncPhase(id string, end forecast.Day, alloc float64) forecast.Phase {
	return forecast.Phase{
		ID:         forecast.PhaseID(id),
		ProjectID:  "proj-1",
		EndDate:    end,
		Allocation: hours(alloc),
	}
}

func TestSync_PhaseBeyondProjectEndExtendsProject(t *testing.T) {
	// GIVEN: a phase ending after the project deadline
	// THEN: the project grows and the correction is reported, never applied
	//       silently
	project := q1Project()
	phases := []forecast.Phase{
		syncPhase("ph-a", date(2025, time.January, 31), 46),
		syncPhase("ph-late", date(2025, time.April, 30), 74),
	}

	res, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	require.NoError(t, err)
	require.NotNil(t, res.Project, "corrected project expected")

	assert.True(t, res.Project.EndDate.Equal(date(2025, time.April, 30)))
	require.Len(t, res.Corrections, 1)
	c := res.Corrections[0]
	assert.Equal(t, "endDate", c.Field)
	assert.True(t, c.Previous.Equal(date(2025, time.March, 31)))
	assert.True(t, c.Updated.Equal(date(2025, time.April, 30)))
	assert.Contains(t, c.Reason, "extended")
}

func TestSync_PhaseBeforeProjectStartExtendsProject(t *testing.T) {
	project := q1Project()
	early := syncPhase("ph-early", date(2025, time.March, 31), 120)
	early.StartDate = dayPtr(date(2024, time.December, 15))

	res, err := forecast.SyncProjectPhaseDates(project, []forecast.Phase{early}, forecast.ChangePhaseUpdated, forecast.Day{})
	require.NoError(t, err)
	require.NotNil(t, res.Project)

	assert.True(t, res.Project.StartDate.Equal(date(2024, time.December, 15)))
	require.Len(t, res.Corrections, 1)
	assert.Equal(t, "startDate", res.Corrections[0].Field)
}

func TestSync_LastPhaseRemovalShrinksProject(t *testing.T) {
	// Deleting the final phase leaves an earlier one as the latest; the
	// project end follows it back in.
	project := q1Project()
	phases := []forecast.Phase{syncPhase("ph-a", date(2025, time.January, 31), 46)}

	res, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseDeleted, forecast.Day{})
	require.NoError(t, err)
	require.NotNil(t, res.Project)

	assert.True(t, res.Project.EndDate.Equal(date(2025, time.January, 31)))
	require.Len(t, res.Corrections, 1)
	assert.Contains(t, res.Corrections[0].Reason, "aligned")
}

func TestSync_OverlapRejectedWithBothPhaseIDs(t *testing.T) {
	project := q1Project()
	second := syncPhase("ph-b", date(2025, time.February, 28), 40)
	second.StartDate = dayPtr(date(2025, time.January, 15))
	phases := []forecast.Phase{
		syncPhase("ph-a", date(2025, time.January, 31), 46),
		second,
	}

	_, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, forecast.ErrPhaseOverlap))

	var overlap *forecast.OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, forecast.PhaseID("ph-a"), overlap.PhaseIDs[0])
	assert.Equal(t, forecast.PhaseID("ph-b"), overlap.PhaseIDs[1])
}

func TestSync_RecurringPlusOrdinaryRejected(t *testing.T) {
	project := q1Project()
	recurring := syncPhase("ph-weekly", project.EndDate, 10)
	recurring.Recurring = &forecast.RecurringConfig{
		Type: forecast.RecurWeekly, Interval: 1, WeeklyDay: time.Monday,
	}
	phases := []forecast.Phase{
		syncPhase("ph-a", date(2025, time.January, 31), 46),
		recurring,
	}

	_, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	assert.True(t, errors.Is(err, forecast.ErrMixedPhaseKinds))
}

func TestSync_Idempotent(t *testing.T) {
	project := q1Project()
	phases := []forecast.Phase{syncPhase("ph-late", date(2025, time.April, 30), 120)}

	first, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	require.NoError(t, err)
	require.NotNil(t, first.Project)

	second, err := forecast.SyncProjectPhaseDates(*first.Project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	require.NoError(t, err)
	assert.Nil(t, second.Project, "re-syncing the corrected project must be a no-op")
	assert.Empty(t, second.Corrections)
}

func TestSync_NoPhasesNoCorrections(t *testing.T) {
	res, err := forecast.SyncProjectPhaseDates(q1Project(), nil, forecast.ChangePhaseDeleted, forecast.Day{})
	require.NoError(t, err)
	assert.Nil(t, res.Project)
	assert.Empty(t, res.Corrections)
}

func TestSync_PastDeadlineWithAllocationWarnsButSucceeds(t *testing.T) {
	project := q1Project()
	phases := []forecast.Phase{
		syncPhase("ph-a", date(2025, time.January, 31), 46),
		syncPhase("ph-b", date(2025, time.March, 31), 74),
	}
	now := date(2025, time.March, 1)

	res, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseUpdated, now)
	require.NoError(t, err, "a past deadline is flagged, not blocked")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ph-a")
}

func TestSync_PhaseEndBeforeResolvedStartRejected(t *testing.T) {
	// Both phases end Jan 31. Anchored after ph-a, ph-bad would have to
	// start Feb 1, past its own end.
	project := q1Project()
	phases := []forecast.Phase{
		syncPhase("ph-a", date(2025, time.January, 31), 46),
		syncPhase("ph-bad", date(2025, time.January, 31), 10),
	}

	_, err := forecast.SyncProjectPhaseDates(project, phases, forecast.ChangePhaseCreated, forecast.Day{})
	assert.True(t, errors.Is(err, forecast.ErrInvalidRange))
}

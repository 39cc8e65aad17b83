/*
resolve.go - Event-vs-estimate display resolution

PURPOSE:
  Decides, for one day, whether the user sees the computed estimate or the
  time actually scheduled on their calendar. The two are mutually
  exclusive: the presence of ANY matching event - planned or completed -
  fully suppresses the estimate for that day. Estimate and event hours are
  never summed or blended; once real time is on the calendar, the forecast
  for that day has been superseded by it.
*/
package forecast

// DisplaySource identifies where a day's displayed hours come from.
type DisplaySource string

const (
	SourceEstimate DisplaySource = "estimate"
	SourceEvent    DisplaySource = "event"
	SourceNone     DisplaySource = "none"
)

// DayDisplay is the resolved presentation value for one day.
type DayDisplay struct {
	Date   Day
	Hours  Hours
	Source DisplaySource

	// Events holds the matching events when Source is SourceEvent.
	Events []CalendarEvent
}

// ResolveDayDisplay applies the blocking rule for a single day. Events are
// filtered to those linked to projectID whose span intersects the day;
// completion status does not matter. If any remain, their clipped hours are
// summed and the estimate is ignored. Otherwise the estimate (if present)
// is shown; failing both, the day displays zero.
func ResolveDayDisplay(date Day, projectID ProjectID, estimate *DayEstimate, events []CalendarEvent) DayDisplay {
	var matched []CalendarEvent
	for _, ev := range events {
		if ev.ProjectID == projectID && ev.IntersectsDay(date) {
			matched = append(matched, ev)
		}
	}

	if len(matched) > 0 {
		total := ZeroHours()
		for _, ev := range matched {
			total = total.Add(ev.HoursOn(date))
		}
		return DayDisplay{Date: date, Hours: total, Source: SourceEvent, Events: matched}
	}

	if estimate != nil && estimate.Date.Equal(date) {
		return DayDisplay{Date: date, Hours: estimate.Hours, Source: SourceEstimate}
	}

	return DayDisplay{Date: date, Hours: ZeroHours(), Source: SourceNone}
}

package activity

import (
	"sort"
	"strings"
	"time"

	"workdiary.app/server/internal/platform"
)

const (
	afterHoursStart  = 17
	earlyHoursEnd    = 9
	backToBackWindow = 15 * time.Minute
)

// Calendar aggregates calendar events into CalendarStats. All-day events
// carry no usable start instant and are excluded throughout.
func (a *Aggregator) Calendar(data *platform.CalendarData) *CalendarStats {
	stats := &CalendarStats{
		Status:         StatusOK,
		MeetingsByDate: make(map[string]int),
	}

	var meetings []platform.CalendarEvent
	recurringSeries := make(map[string]struct{})
	for _, ev := range data.Events {
		if ev.AllDay {
			continue
		}
		if ev.RecurringEventID != "" {
			recurringSeries[ev.RecurringEventID] = struct{}{}
		}
		meetings = append(meetings, ev)
	}
	stats.RecurringMeetings = len(recurringSeries)

	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].Start.Before(meetings[j].Start)
	})

	var durations []float64
	for i, ev := range meetings {
		local := ev.Start.In(a.loc)
		duration := ev.End.Sub(ev.Start).Minutes()

		stats.TotalMeetings++
		stats.TotalDurationMinutes += duration
		durations = append(durations, duration)
		stats.MeetingsByWeekday[int(local.Weekday())]++
		stats.MeetingsByDate[dateKey(local)]++

		if local.Hour() >= afterHoursStart {
			stats.AfterHoursMeetings++
		}
		if local.Hour() < earlyHoursEnd {
			stats.EarlyMeetings++
		}

		// A negative gap means the meetings overlap; double bookings count
		// as back-to-back too.
		if i > 0 {
			gap := ev.Start.Sub(meetings[i-1].End)
			if gap < backToBackWindow {
				stats.BackToBackMeetings++
			}
		}

		classifyMeeting(stats, ev)
	}

	if stats.TotalMeetings > 0 {
		stats.AvgDurationMinutes = stats.TotalDurationMinutes / float64(stats.TotalMeetings)
		stats.MedianDurationMinutes = median(durations)
	}

	return stats
}

func classifyMeeting(stats *CalendarStats, ev platform.CalendarEvent) {
	if len(ev.AttendeeEmails) == 1 {
		stats.MeetingTypes.OneOnOne++
		return
	}

	organizerDomain := emailDomain(ev.OrganizerEmail)
	for _, email := range ev.AttendeeEmails {
		if emailDomain(email) != organizerDomain {
			stats.MeetingTypes.External++
			return
		}
	}
	stats.MeetingTypes.Internal++
}

// median uses the standard rule: middle element for odd-length input,
// mean of the two middle elements for even.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

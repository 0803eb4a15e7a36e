package activity_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/platform"
)

var _ = Describe("Calendar aggregation", func() {
	var agg *activity.Aggregator

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	meeting := func(startHour, startMin, durationMin int) platform.CalendarEvent {
		start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
		return platform.CalendarEvent{
			Start: start,
			End:   start.Add(time.Duration(durationMin) * time.Minute),
		}
	}

	BeforeEach(func() {
		var err error
		agg, err = activity.NewAggregator("UTC")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report zero stats for an empty window", func() {
		stats := agg.Calendar(&platform.CalendarData{})

		Expect(stats.TotalMeetings).To(BeZero())
		Expect(stats.AvgDurationMinutes).To(BeZero())
		Expect(stats.MedianDurationMinutes).To(BeZero())
	})

	Describe("median duration", func() {
		It("should take the middle element for an odd-length list", func() {
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(9, 0, 10),
				meeting(11, 0, 20),
				meeting(13, 0, 30),
			}}

			stats := agg.Calendar(data)
			Expect(stats.MedianDurationMinutes).To(BeNumerically("~", 20.0, 1e-9))
		})

		It("should average the middle pair for an even-length list", func() {
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(9, 0, 10),
				meeting(11, 0, 20),
				meeting(13, 0, 30),
				meeting(15, 0, 40),
			}}

			stats := agg.Calendar(data)
			Expect(stats.MedianDurationMinutes).To(BeNumerically("~", 25.0, 1e-9))
		})
	})

	Describe("back-to-back detection", func() {
		It("should count a 14 minute gap but not a 15 minute gap", func() {
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(9, 0, 30),   // ends 09:30
				meeting(9, 44, 30),  // 14 min gap
				meeting(10, 29, 30), // 15 min gap
			}}

			stats := agg.Calendar(data)
			Expect(stats.BackToBackMeetings).To(Equal(1))
		})

		It("should count an overlapping pair as back-to-back", func() {
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(9, 0, 60),  // ends 10:00
				meeting(9, 30, 60), // double-booked
			}}

			stats := agg.Calendar(data)
			Expect(stats.BackToBackMeetings).To(Equal(1))
		})
	})

	Describe("after-hours and early classification", func() {
		It("should classify by local start hour", func() {
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(8, 59, 30),  // early
				meeting(9, 0, 30),   // neither
				meeting(16, 59, 30), // neither
				meeting(17, 0, 30),  // after hours
			}}

			stats := agg.Calendar(data)
			Expect(stats.EarlyMeetings).To(Equal(1))
			Expect(stats.AfterHoursMeetings).To(Equal(1))
		})

		It("should convert instants to the reference timezone first", func() {
			kolkata, err := activity.NewAggregator("Asia/Kolkata")
			Expect(err).NotTo(HaveOccurred())

			// 12:00 UTC is 17:30 in Kolkata.
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				meeting(12, 0, 30),
			}}

			stats := kolkata.Calendar(data)
			Expect(stats.AfterHoursMeetings).To(Equal(1))
		})
	})

	Describe("recurring series", func() {
		It("should count a series once regardless of instance count", func() {
			ev := meeting(9, 0, 30)
			ev.RecurringEventID = "series-1"
			ev2 := meeting(10, 0, 30)
			ev2.RecurringEventID = "series-1"
			ev3 := meeting(11, 0, 30)
			ev3.RecurringEventID = "series-1"

			data := &platform.CalendarData{Events: []platform.CalendarEvent{ev, ev2, ev3}}

			stats := agg.Calendar(data)
			Expect(stats.RecurringMeetings).To(Equal(1))
			Expect(stats.TotalMeetings).To(Equal(3))
		})

		It("should not count an all-day recurring series", func() {
			birthday := platform.CalendarEvent{
				Start:            day,
				End:              day.AddDate(0, 0, 1),
				AllDay:           true,
				RecurringEventID: "series-bday",
			}
			standup := meeting(9, 0, 15)
			standup.RecurringEventID = "series-standup"

			data := &platform.CalendarData{Events: []platform.CalendarEvent{birthday, standup}}

			stats := agg.Calendar(data)
			Expect(stats.RecurringMeetings).To(Equal(1))
		})
	})

	Describe("meeting type breakdown", func() {
		It("should classify one-on-one, internal and external meetings", func() {
			oneOnOne := meeting(9, 0, 30)
			oneOnOne.OrganizerEmail = "me@corp.com"
			oneOnOne.AttendeeEmails = []string{"peer@corp.com"}

			internal := meeting(10, 0, 30)
			internal.OrganizerEmail = "me@corp.com"
			internal.AttendeeEmails = []string{"me@corp.com", "peer@corp.com"}

			external := meeting(11, 0, 30)
			external.OrganizerEmail = "me@corp.com"
			external.AttendeeEmails = []string{"me@corp.com", "client@other.io"}

			data := &platform.CalendarData{Events: []platform.CalendarEvent{oneOnOne, internal, external}}

			stats := agg.Calendar(data)
			Expect(stats.MeetingTypes.OneOnOne).To(Equal(1))
			Expect(stats.MeetingTypes.Internal).To(Equal(1))
			Expect(stats.MeetingTypes.External).To(Equal(1))
		})
	})

	Describe("all-day events", func() {
		It("should exclude them from duration statistics", func() {
			allDay := platform.CalendarEvent{
				Start:  day,
				End:    day.AddDate(0, 0, 1),
				AllDay: true,
			}
			data := &platform.CalendarData{Events: []platform.CalendarEvent{
				allDay,
				meeting(9, 0, 30),
			}}

			stats := agg.Calendar(data)
			Expect(stats.TotalMeetings).To(Equal(1))
			Expect(stats.TotalDurationMinutes).To(BeNumerically("~", 30.0, 1e-9))
		})
	})
})

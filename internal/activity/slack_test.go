package activity_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/platform"
)

func selfMsg(t time.Time, channel string) platform.SlackMessage {
	return platform.SlackMessage{Timestamp: t, ChannelID: channel, UserID: "U1", IsSelf: true}
}

func otherMsg(t time.Time, channel string) platform.SlackMessage {
	return platform.SlackMessage{Timestamp: t, ChannelID: channel, UserID: "U2"}
}

var _ = Describe("Slack aggregation", func() {
	var agg *activity.Aggregator

	// Monday
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	at := func(hour, min int) time.Time {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
	}

	BeforeEach(func() {
		var err error
		agg, err = activity.NewAggregator("UTC")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("message histograms", func() {
		It("should sum hour buckets to the total message count", func() {
			data := &platform.SlackData{
				AuthUserID: "U1",
				Messages: []platform.SlackMessage{
					selfMsg(at(9, 0), "C1"),
					selfMsg(at(10, 30), "C1"),
					selfMsg(at(20, 0), "C2"),
				},
				DMs: []platform.SlackMessage{
					selfMsg(at(11, 0), "D1"),
					otherMsg(at(11, 5), "D1"),
				},
			}

			stats := agg.Slack(data)

			Expect(stats.TotalMessages).To(Equal(4))
			Expect(stats.ChannelMessages).To(Equal(3))
			Expect(stats.DirectMessages).To(Equal(1))

			sum := 0
			for _, n := range stats.MessagesByHour {
				sum += n
			}
			Expect(sum).To(Equal(stats.TotalMessages))

			sum = 0
			for _, n := range stats.MessagesByWeekday {
				sum += n
			}
			Expect(sum).To(Equal(stats.TotalMessages))
		})

		It("should not count inbound DM messages as the user's", func() {
			data := &platform.SlackData{
				AuthUserID: "U1",
				DMs: []platform.SlackMessage{
					otherMsg(at(10, 0), "D1"),
					otherMsg(at(10, 5), "D1"),
				},
			}

			stats := agg.Slack(data)
			Expect(stats.TotalMessages).To(BeZero())
		})
	})

	Describe("work-hours ratio", func() {
		It("should report 0 with no messages", func() {
			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1"})
			Expect(stats.WorkHoursRatio).To(BeZero())
		})

		It("should count only messages in [9,17)", func() {
			data := &platform.SlackData{
				AuthUserID: "U1",
				Messages: []platform.SlackMessage{
					selfMsg(at(9, 0), "C1"),
					selfMsg(at(16, 59), "C1"),
					selfMsg(at(17, 0), "C1"),
					selfMsg(at(8, 59), "C1"),
				},
			}

			stats := agg.Slack(data)
			Expect(stats.WorkHoursRatio).To(BeNumerically("~", 0.5, 1e-9))
		})
	})

	Describe("peak hours and busiest days", func() {
		It("should rank active hours and weekdays by volume", func() {
			tuesday := day.AddDate(0, 0, 1)
			data := &platform.SlackData{
				AuthUserID: "U1",
				Messages: []platform.SlackMessage{
					selfMsg(at(10, 0), "C1"),
					selfMsg(at(10, 15), "C1"),
					selfMsg(at(10, 30), "C1"),
					selfMsg(at(14, 0), "C1"),
					selfMsg(at(14, 30), "C1"),
					selfMsg(at(9, 0), "C1"),
					selfMsg(tuesday.Add(16*time.Hour), "C1"),
				},
			}

			stats := agg.Slack(data)

			Expect(stats.PeakHours).To(Equal([]int{10, 14, 9}))
			Expect(stats.BusiestDays).To(Equal([]string{"Monday", "Tuesday"}))
		})

		It("should stay empty with no messages", func() {
			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1"})
			Expect(stats.PeakHours).To(BeEmpty())
			Expect(stats.BusiestDays).To(BeEmpty())
		})
	})

	Describe("thread statistics", func() {
		thread := func(channel string, total, userReplies int, rootSelf bool) platform.SlackThread {
			t := platform.SlackThread{ChannelID: channel}
			root := otherMsg(at(10, 0), channel)
			root.IsSelf = rootSelf
			root.Text = "quarterly planning kickoff discussion"
			t.Messages = append(t.Messages, root)
			for i := 0; i < total-1; i++ {
				msg := otherMsg(at(10, i+1), channel)
				msg.IsSelf = i < userReplies
				t.Messages = append(t.Messages, msg)
			}
			return t
		}

		It("should classify deep discussions by length and user replies", func() {
			data := &platform.SlackData{
				AuthUserID: "U1",
				Threads: []platform.SlackThread{
					thread("C1", 6, 3, false), // deep
					thread("C2", 6, 2, false), // long but shallow
					thread("C3", 5, 4, false), // too short
				},
			}

			stats := agg.Slack(data)

			Expect(stats.Threads.TotalThreads).To(Equal(3))
			Expect(stats.Threads.LongThreads).To(Equal(2))
			Expect(stats.Threads.DeepDiscussions).To(HaveLen(1))
			Expect(stats.Threads.DeepDiscussions[0].Channel).To(Equal("C1"))
			Expect(stats.Threads.DeepDiscussions[0].Length).To(Equal(6))
			Expect(stats.Threads.DeepDiscussions[0].UserReplies).To(Equal(3))
			Expect(stats.Threads.DeepDiscussions[0].Topic).To(ContainSubstring("quarterly"))
		})

		It("should count threads the user started and average length", func() {
			data := &platform.SlackData{
				AuthUserID: "U1",
				Threads: []platform.SlackThread{
					thread("C1", 4, 1, true),
					thread("C2", 8, 0, false),
				},
			}

			stats := agg.Slack(data)

			Expect(stats.Threads.ThreadsStarted).To(Equal(1))
			Expect(stats.Threads.UserReplies).To(Equal(1))
			Expect(stats.Threads.AvgThreadLength).To(BeNumerically("~", 6.0, 1e-9))
		})
	})

	Describe("response time by hour", func() {
		// One sample: inbound from the other party, then the user's reply
		// gapMinutes later. The bucket is the reply's hour.
		exchange := func(channel string, inbound time.Time, gapMinutes int) []platform.SlackMessage {
			return []platform.SlackMessage{
				otherMsg(inbound, channel),
				selfMsg(inbound.Add(time.Duration(gapMinutes)*time.Minute), channel),
			}
		}

		It("should default every bucket to 30 with no samples at all", func() {
			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1"})
			for _, v := range stats.ResponseTimeByHour {
				Expect(v).To(BeNumerically("~", 30.0, 1e-9))
			}
		})

		It("should average direct samples excluding outliers", func() {
			var dms []platform.SlackMessage
			dms = append(dms, exchange("D1", at(10, 0), 10)...)
			dms = append(dms, exchange("D2", at(10, 5), 30)...)
			dms = append(dms, exchange("D3", at(4, 0), 400)...) // outlier lands in hour 10

			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1", DMs: dms})
			Expect(stats.ResponseTimeByHour[10]).To(BeNumerically("~", 20.0, 1e-9))
		})

		It("should report 0 when every sample for an hour is an outlier", func() {
			dms := exchange("D1", at(5, 0), 300)

			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1", DMs: dms})
			Expect(stats.ResponseTimeByHour[10]).To(BeZero())
		})

		It("should interpolate an empty hour from its neighbors", func() {
			var dms []platform.SlackMessage
			dms = append(dms, exchange("D1", at(11, 0), 10)...) // hour 11
			dms = append(dms, exchange("D2", at(13, 0), 30)...) // hour 13

			stats := agg.Slack(&platform.SlackData{AuthUserID: "U1", DMs: dms})
			Expect(stats.ResponseTimeByHour[12]).To(BeNumerically("~", 20.0, 1e-9))
		})
	})

	Describe("partial fetch failures", func() {
		It("should carry channel errors without touching the counts", func() {
			data := &platform.SlackData{
				AuthUserID:    "U1",
				Messages:      []platform.SlackMessage{selfMsg(at(10, 0), "C1")},
				ChannelErrors: []string{"C9: channel_not_found"},
			}

			stats := agg.Slack(data)
			Expect(stats.TotalMessages).To(Equal(1))
			Expect(stats.Errors).To(HaveLen(1))
			Expect(stats.Status).To(Equal(activity.StatusOK))
		})
	})
})

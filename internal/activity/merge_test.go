package activity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/internal/activity"
)

var _ = Describe("Merge", func() {
	It("should flag only genuinely connected platforms", func() {
		slack := &activity.SlackStats{Status: activity.StatusOK, TotalMessages: 5}

		view := activity.Merge(activity.MergeParams{Slack: slack})

		Expect(view.ServicesConnected).To(Equal(map[string]bool{
			"slack":    true,
			"calendar": false,
			"github":   false,
		}))
		Expect(view.Slack.TotalMessages).To(Equal(5))
	})

	It("should substitute the documented placeholder for absent platforms", func() {
		view := activity.Merge(activity.MergeParams{})

		Expect(view.Slack).To(Equal(activity.PlaceholderSlackStats(activity.StatusNotConnected)))
		Expect(view.Calendar).To(Equal(activity.PlaceholderCalendarStats(activity.StatusNotConnected)))
		Expect(view.GitHub).To(Equal(activity.PlaceholderGitHubStats(activity.StatusNotConnected)))
		Expect(view.Slack.Status).To(Equal("not connected"))
	})

	It("should carry a fetch failure reason in the placeholder status", func() {
		view := activity.Merge(activity.MergeParams{
			GitHubReason: "platform unavailable",
		})

		Expect(view.GitHub.Status).To(Equal("platform unavailable"))
		Expect(view.ServicesConnected["github"]).To(BeFalse())
	})

	It("should never share numbers between sections", func() {
		slack := &activity.SlackStats{Status: activity.StatusOK, TotalMessages: 9}

		view := activity.Merge(activity.MergeParams{Slack: slack})

		Expect(view.Calendar.TotalMeetings).To(BeZero())
		Expect(view.GitHub.TotalEvents).To(BeZero())
	})
})

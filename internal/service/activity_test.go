package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"workdiary.app/server/common/id"
	"workdiary.app/server/core/config"
	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/service"
)

var _ = Describe("ActivityService", func() {
	var (
		ctx       context.Context
		conns     *mockConnectionService
		snapStore *mockSnapshotStore
		slack     *mockSlackClient
		calendar  *mockCalendarClient
		github    *mockGitHubClient
		agg       *activity.Aggregator
		cfg       config.AnalysisConfig
	)

	newService := func() service.ActivityService {
		return service.NewActivityService(conns, snapStore, slack, calendar, github, agg, cfg)
	}

	BeforeEach(func() {
		ctx = context.Background()
		conns = &mockConnectionService{}
		snapStore = &mockSnapshotStore{}
		slack = &mockSlackClient{}
		calendar = &mockCalendarClient{}
		github = &mockGitHubClient{}
		cfg = config.AnalysisConfig{
			ReferenceTimezone: "UTC",
			FetchTimeout:      30 * time.Second,
			DefaultDays:       7,
		}

		var err error
		agg, err = activity.NewAggregator("UTC")
		Expect(err).NotTo(HaveOccurred())

		err = id.Init(1)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Analyze", func() {
		It("should reject a window outside [1,90] days", func() {
			_, _, err := newService().Analyze(ctx, 1, 91)
			Expect(err).To(MatchError(service.ErrInvalidDays))

			_, _, err = newService().Analyze(ctx, 1, -1)
			Expect(err).To(MatchError(service.ErrInvalidDays))
		})

		It("should fall back to the configured default for zero days", func() {
			var gotWindow platform.Window
			conns.tokenFn = func(_ context.Context, _ int64, p model.Platform) (string, error) {
				if p == model.PlatformSlack {
					return "tok", nil
				}
				return "", platform.ErrNotConnected
			}
			slack.fetchFn = func(_ context.Context, _ string, w platform.Window) (*platform.SlackData, error) {
				gotWindow = w
				return &platform.SlackData{}, nil
			}

			_, _, err := newService().Analyze(ctx, 1, 0)
			Expect(err).NotTo(HaveOccurred())

			span := gotWindow.End.Sub(gotWindow.Start)
			Expect(span).To(BeNumerically("~", 7*24*time.Hour, time.Minute))
		})

		It("should produce placeholders when nothing is connected", func() {
			view, _, err := newService().Analyze(ctx, 1, 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(view.ServicesConnected).To(Equal(map[string]bool{
				"slack": false, "calendar": false, "github": false,
			}))
			Expect(view.Slack.Status).To(Equal(activity.StatusNotConnected))
		})

		It("should keep other platforms when one is unavailable", func() {
			conns.tokenFn = func(_ context.Context, _ int64, _ model.Platform) (string, error) {
				return "tok", nil
			}
			slack.fetchFn = func(_ context.Context, _ string, _ platform.Window) (*platform.SlackData, error) {
				return nil, platform.ErrUnavailable
			}
			github.fetchFn = func(_ context.Context, _ string, _ platform.Window) (*platform.GitHubData, error) {
				return &platform.GitHubData{Events: []platform.GitHubEvent{
					{CreatedAt: time.Now().UTC(), Type: "IssuesEvent", Repo: "org/app"},
				}}, nil
			}

			view, _, err := newService().Analyze(ctx, 1, 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(view.ServicesConnected["slack"]).To(BeFalse())
			Expect(view.Slack.Status).To(Equal("platform unavailable"))
			Expect(view.ServicesConnected["github"]).To(BeTrue())
			Expect(view.GitHub.Issues).To(Equal(1))
		})

		It("should write one snapshot per analysis", func() {
			var saved *model.AnalysisSnapshot
			snapStore.createFn = func(_ context.Context, snap *model.AnalysisSnapshot) error {
				saved = snap
				return nil
			}

			_, snapshot, err := newService().Analyze(ctx, 42, 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(snapStore.createCalls).To(Equal(1))
			Expect(snapshot).NotTo(BeNil())
			Expect(saved.UserID).To(Equal(int64(42)))
			Expect(saved.Days).To(Equal(7))
			Expect(saved.View).NotTo(BeEmpty())
		})

		It("should not fail the analysis when the snapshot write fails", func() {
			snapStore.createFn = func(_ context.Context, _ *model.AnalysisSnapshot) error {
				return context.DeadlineExceeded
			}

			view, snapshot, err := newService().Analyze(ctx, 1, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(view).NotTo(BeNil())
			Expect(snapshot).To(BeNil())
		})
	})

	Describe("AnalyzeSlack", func() {
		It("should surface not-connected as an error", func() {
			_, err := newService().AnalyzeSlack(ctx, 1, 7)
			Expect(err).To(MatchError(platform.ErrNotConnected))
		})

		It("should return aggregated stats for a connected account", func() {
			conns.tokenFn = func(_ context.Context, _ int64, _ model.Platform) (string, error) {
				return "tok", nil
			}
			slack.fetchFn = func(_ context.Context, _ string, _ platform.Window) (*platform.SlackData, error) {
				return &platform.SlackData{
					AuthUserID: "U1",
					Messages: []platform.SlackMessage{
						{Timestamp: time.Now().UTC(), ChannelID: "C1", UserID: "U1", IsSelf: true},
					},
				}, nil
			}

			stats, err := newService().AnalyzeSlack(ctx, 1, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMessages).To(Equal(1))
		})
	})
})

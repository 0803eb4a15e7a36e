package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"workdiary.app/server/common/id"
	"workdiary.app/server/common/logger"
	"workdiary.app/server/core/config"
	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/store"
)

var ErrInvalidDays = errors.New("days must be between 1 and 90")

const (
	minAnalysisDays = 1
	maxAnalysisDays = 90
)

// ActivityService runs the fetch-aggregate-merge pipeline for one user.
type ActivityService interface {
	Analyze(ctx context.Context, userID int64, days int) (*activity.CompositeView, *model.AnalysisSnapshot, error)
	AnalyzeSlack(ctx context.Context, userID int64, days int) (*activity.SlackStats, error)
	AnalyzeCalendar(ctx context.Context, userID int64, days int) (*activity.CalendarStats, error)
	AnalyzeGitHub(ctx context.Context, userID int64, days int) (*activity.GitHubStats, error)
}

type activityService struct {
	connections ConnectionService
	snapStore   store.SnapshotStore
	slack       platform.SlackClient
	calendar    platform.CalendarClient
	github      platform.GitHubClient
	agg         *activity.Aggregator
	cfg         config.AnalysisConfig
}

func NewActivityService(
	connections ConnectionService,
	snapStore store.SnapshotStore,
	slack platform.SlackClient,
	calendar platform.CalendarClient,
	github platform.GitHubClient,
	agg *activity.Aggregator,
	cfg config.AnalysisConfig,
) ActivityService {
	return &activityService{
		connections: connections,
		snapStore:   snapStore,
		slack:       slack,
		calendar:    calendar,
		github:      github,
		agg:         agg,
		cfg:         cfg,
	}
}

func (s *activityService) window(days int) (platform.Window, int, error) {
	if days == 0 {
		days = s.cfg.DefaultDays
	}
	if days < minAnalysisDays || days > maxAnalysisDays {
		return platform.Window{}, 0, ErrInvalidDays
	}
	end := time.Now().UTC()
	return platform.Window{Start: end.AddDate(0, 0, -days), End: end}, days, nil
}

// Analyze fetches all three platforms concurrently and merges whatever
// succeeded. A platform failing lands as a placeholder section with the
// failure reason; it never fails the composite.
func (s *activityService) Analyze(ctx context.Context, userID int64, days int) (*activity.CompositeView, *model.AnalysisSnapshot, error) {
	window, days, err := s.window(days)
	if err != nil {
		return nil, nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &userID, Days: &days})
	start := time.Now()

	var (
		wg             sync.WaitGroup
		slackStats     *activity.SlackStats
		calendarStats  *activity.CalendarStats
		githubStats    *activity.GitHubStats
		slackReason    string
		calendarReason string
		githubReason   string
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		slackStats, slackReason = s.slackStats(ctx, userID, window)
	}()
	go func() {
		defer wg.Done()
		calendarStats, calendarReason = s.calendarStats(ctx, userID, window)
	}()
	go func() {
		defer wg.Done()
		githubStats, githubReason = s.githubStats(ctx, userID, window)
	}()
	wg.Wait()

	view := activity.Merge(activity.MergeParams{
		Slack:          slackStats,
		Calendar:       calendarStats,
		GitHub:         githubStats,
		SlackReason:    slackReason,
		CalendarReason: calendarReason,
		GitHubReason:   githubReason,
	})

	slog.InfoContext(ctx, "analysis complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"slack", view.ServicesConnected["slack"],
		"calendar", view.ServicesConnected["calendar"],
		"github", view.ServicesConnected["github"])

	snapshot := s.saveSnapshot(ctx, userID, days, window, view)
	return view, snapshot, nil
}

// saveSnapshot is best effort; a failed write is logged, not surfaced.
func (s *activityService) saveSnapshot(ctx context.Context, userID int64, days int, window platform.Window, view *activity.CompositeView) *model.AnalysisSnapshot {
	raw, err := json.Marshal(view)
	if err != nil {
		slog.ErrorContext(ctx, "marshaling snapshot view", "error", err)
		return nil
	}

	snapshot := &model.AnalysisSnapshot{
		ID:          id.New(),
		UserID:      userID,
		Days:        days,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		View:        raw,
	}
	if err := s.snapStore.Create(ctx, snapshot); err != nil {
		slog.ErrorContext(ctx, "saving analysis snapshot", "error", err)
		return nil
	}
	return snapshot
}

func (s *activityService) slackStats(ctx context.Context, userID int64, window platform.Window) (*activity.SlackStats, string) {
	data, err := s.fetchSlack(ctx, userID, window)
	if err != nil {
		return nil, fetchReason(ctx, model.PlatformSlack, err)
	}
	return s.agg.Slack(data), ""
}

func (s *activityService) calendarStats(ctx context.Context, userID int64, window platform.Window) (*activity.CalendarStats, string) {
	data, err := s.fetchCalendar(ctx, userID, window)
	if err != nil {
		return nil, fetchReason(ctx, model.PlatformGoogleCalendar, err)
	}
	return s.agg.Calendar(data), ""
}

func (s *activityService) githubStats(ctx context.Context, userID int64, window platform.Window) (*activity.GitHubStats, string) {
	data, err := s.fetchGitHub(ctx, userID, window)
	if err != nil {
		return nil, fetchReason(ctx, model.PlatformGitHub, err)
	}
	return s.agg.GitHub(data), ""
}

func (s *activityService) fetchSlack(ctx context.Context, userID int64, window platform.Window) (*platform.SlackData, error) {
	token, err := s.connections.Token(ctx, userID, model.PlatformSlack)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.slack.FetchActivity(ctx, token, window)
}

func (s *activityService) fetchCalendar(ctx context.Context, userID int64, window platform.Window) (*platform.CalendarData, error) {
	token, err := s.connections.Token(ctx, userID, model.PlatformGoogleCalendar)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.calendar.FetchEvents(ctx, token, window)
}

func (s *activityService) fetchGitHub(ctx context.Context, userID int64, window platform.Window) (*platform.GitHubData, error) {
	token, err := s.connections.Token(ctx, userID, model.PlatformGitHub)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.github.FetchActivity(ctx, token, window)
}

func (s *activityService) AnalyzeSlack(ctx context.Context, userID int64, days int) (*activity.SlackStats, error) {
	window, _, err := s.window(days)
	if err != nil {
		return nil, err
	}
	data, err := s.fetchSlack(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	return s.agg.Slack(data), nil
}

func (s *activityService) AnalyzeCalendar(ctx context.Context, userID int64, days int) (*activity.CalendarStats, error) {
	window, _, err := s.window(days)
	if err != nil {
		return nil, err
	}
	data, err := s.fetchCalendar(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	return s.agg.Calendar(data), nil
}

func (s *activityService) AnalyzeGitHub(ctx context.Context, userID int64, days int) (*activity.GitHubStats, error) {
	window, _, err := s.window(days)
	if err != nil {
		return nil, err
	}
	data, err := s.fetchGitHub(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	return s.agg.GitHub(data), nil
}

// fetchReason maps a platform fetch failure to the human-readable status
// carried in the placeholder section.
func fetchReason(ctx context.Context, p model.Platform, err error) string {
	switch {
	case errors.Is(err, platform.ErrNotConnected):
		return activity.StatusNotConnected
	case errors.Is(err, platform.ErrCredentialInvalid):
		slog.WarnContext(ctx, "platform credential invalid", "platform", p)
		return fmt.Sprintf("credential invalid, reconnect %s", p)
	case errors.Is(err, platform.ErrUnavailable):
		slog.WarnContext(ctx, "platform unavailable", "platform", p)
		return "platform unavailable"
	default:
		slog.ErrorContext(ctx, "platform fetch failed", "platform", p, "error", err)
		return "fetch failed"
	}
}

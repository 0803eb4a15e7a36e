package handler_test

import (
	"context"

	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/insight"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/service"
)

type mockAuthService struct {
	getAuthorizationURLFn func(state string) (string, error)
	handleCallbackFn      func(ctx context.Context, code string) (*model.User, *model.Session, error)
	validateSessionFn     func(ctx context.Context, sessionID int64) (*model.User, error)
	logoutFn              func(ctx context.Context, sessionID int64) error
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	if m.getAuthorizationURLFn != nil {
		return m.getAuthorizationURLFn(state)
	}
	return "https://auth.example.com/authorize?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return &model.User{ID: 1}, &model.Session{ID: 2}, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return &model.User{ID: 1, Name: "Priya Sharma", Email: "priya@example.com"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID int64) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockConnectionService struct {
	authURLFn        func(p model.Platform, state string) (string, error)
	handleCallbackFn func(ctx context.Context, userID int64, p model.Platform, code string) (*model.Connection, error)
	listFn           func(ctx context.Context, userID int64) ([]model.Connection, error)
	disconnectFn     func(ctx context.Context, userID int64, p model.Platform) error
	tokenFn          func(ctx context.Context, userID int64, p model.Platform) (string, error)
}

func (m *mockConnectionService) AuthURL(p model.Platform, state string) (string, error) {
	if m.authURLFn != nil {
		return m.authURLFn(p, state)
	}
	return "https://oauth.example.com/" + string(p), nil
}

func (m *mockConnectionService) HandleCallback(ctx context.Context, userID int64, p model.Platform, code string) (*model.Connection, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, userID, p, code)
	}
	return &model.Connection{UserID: userID, Platform: p}, nil
}

func (m *mockConnectionService) List(ctx context.Context, userID int64) ([]model.Connection, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConnectionService) Disconnect(ctx context.Context, userID int64, p model.Platform) error {
	if m.disconnectFn != nil {
		return m.disconnectFn(ctx, userID, p)
	}
	return nil
}

func (m *mockConnectionService) Token(ctx context.Context, userID int64, p model.Platform) (string, error) {
	if m.tokenFn != nil {
		return m.tokenFn(ctx, userID, p)
	}
	return "tok", nil
}

type mockActivityService struct {
	analyzeFn         func(ctx context.Context, userID int64, days int) (*activity.CompositeView, *model.AnalysisSnapshot, error)
	analyzeSlackFn    func(ctx context.Context, userID int64, days int) (*activity.SlackStats, error)
	analyzeCalendarFn func(ctx context.Context, userID int64, days int) (*activity.CalendarStats, error)
	analyzeGitHubFn   func(ctx context.Context, userID int64, days int) (*activity.GitHubStats, error)
}

func (m *mockActivityService) Analyze(ctx context.Context, userID int64, days int) (*activity.CompositeView, *model.AnalysisSnapshot, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID, days)
	}
	return activity.Merge(activity.MergeParams{}), nil, nil
}

func (m *mockActivityService) AnalyzeSlack(ctx context.Context, userID int64, days int) (*activity.SlackStats, error) {
	if m.analyzeSlackFn != nil {
		return m.analyzeSlackFn(ctx, userID, days)
	}
	return &activity.SlackStats{Status: activity.StatusOK}, nil
}

func (m *mockActivityService) AnalyzeCalendar(ctx context.Context, userID int64, days int) (*activity.CalendarStats, error) {
	if m.analyzeCalendarFn != nil {
		return m.analyzeCalendarFn(ctx, userID, days)
	}
	return &activity.CalendarStats{Status: activity.StatusOK}, nil
}

func (m *mockActivityService) AnalyzeGitHub(ctx context.Context, userID int64, days int) (*activity.GitHubStats, error) {
	if m.analyzeGitHubFn != nil {
		return m.analyzeGitHubFn(ctx, userID, days)
	}
	return &activity.GitHubStats{Status: activity.StatusOK}, nil
}

type mockNudgeService struct {
	generateFn func(ctx context.Context, userID int64, days int) (*model.Nudge, *insight.Result, error)
	previewFn  func(ctx context.Context, userID int64, days int) (*insight.Result, error)
	deliverFn  func(ctx context.Context, nudgeID int64) error
	listFn     func(ctx context.Context, userID int64, limit int) ([]model.Nudge, error)
}

func (m *mockNudgeService) Generate(ctx context.Context, userID int64, days int) (*model.Nudge, *insight.Result, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, userID, days)
	}
	return &model.Nudge{ID: 1, UserID: userID, Message: "hi", Status: model.NudgeStatusPending},
		&insight.Result{Message: "hi"}, nil
}

func (m *mockNudgeService) Preview(ctx context.Context, userID int64, days int) (*insight.Result, error) {
	if m.previewFn != nil {
		return m.previewFn(ctx, userID, days)
	}
	return &insight.Result{Message: "hi"}, nil
}

func (m *mockNudgeService) Deliver(ctx context.Context, nudgeID int64) error {
	if m.deliverFn != nil {
		return m.deliverFn(ctx, nudgeID)
	}
	return nil
}

func (m *mockNudgeService) List(ctx context.Context, userID int64, limit int) ([]model.Nudge, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

var _ service.AuthService = (*mockAuthService)(nil)
var _ service.ConnectionService = (*mockConnectionService)(nil)
var _ service.ActivityService = (*mockActivityService)(nil)
var _ service.NudgeService = (*mockNudgeService)(nil)

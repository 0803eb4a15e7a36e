package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"workdiary.app/server/common/id"
	"workdiary.app/server/common/logger"
	"workdiary.app/server/internal/insight"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/queue"
	"workdiary.app/server/internal/store"
)

var ErrNudgeNotFound = errors.New("nudge not found")

// NudgeService generates wellness nudges and owns their delivery
// lifecycle. Generation is synchronous; delivery happens on the worker
// via the queue.
type NudgeService interface {
	Generate(ctx context.Context, userID int64, days int) (*model.Nudge, *insight.Result, error)
	Preview(ctx context.Context, userID int64, days int) (*insight.Result, error)
	Deliver(ctx context.Context, nudgeID int64) error
	List(ctx context.Context, userID int64, limit int) ([]model.Nudge, error)
}

type nudgeService struct {
	userStore   store.UserStore
	nudgeStore  store.NudgeStore
	activity    ActivityService
	connections ConnectionService
	composer    *insight.Composer
	slack       platform.SlackClient
	producer    queue.Producer
}

func NewNudgeService(
	userStore store.UserStore,
	nudgeStore store.NudgeStore,
	activitySvc ActivityService,
	connections ConnectionService,
	composer *insight.Composer,
	slack platform.SlackClient,
	producer queue.Producer,
) NudgeService {
	return &nudgeService{
		userStore:   userStore,
		nudgeStore:  nudgeStore,
		activity:    activitySvc,
		connections: connections,
		composer:    composer,
		slack:       slack,
		producer:    producer,
	}
}

// Generate runs a fresh analysis, composes the nudge, persists it and
// queues it for Slack delivery.
func (s *nudgeService) Generate(ctx context.Context, userID int64, days int) (*model.Nudge, *insight.Result, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	view, snapshot, err := s.activity.Analyze(ctx, userID, days)
	if err != nil {
		return nil, nil, err
	}

	result := s.composer.Compose(ctx, firstName(user.Name), view)

	nudge := &model.Nudge{
		ID:      id.New(),
		UserID:  userID,
		Message: result.Message,
		Status:  model.NudgeStatusPending,
	}
	if snapshot != nil {
		nudge.SnapshotID = &snapshot.ID
	}
	if err := s.nudgeStore.Create(ctx, nudge); err != nil {
		return nil, nil, fmt.Errorf("storing nudge: %w", err)
	}

	msg := queue.NudgeMessage{NudgeID: nudge.ID, UserID: userID}
	if traceID := traceIDFrom(ctx); traceID != "" {
		msg.TraceID = &traceID
	}
	if err := s.producer.Enqueue(ctx, msg); err != nil {
		// The nudge row survives; delivery can be retried by hand.
		slog.ErrorContext(ctx, "enqueueing nudge delivery", "nudge_id", nudge.ID, "error", err)
	}

	return nudge, result, nil
}

// Preview composes a nudge without persisting or delivering anything.
func (s *nudgeService) Preview(ctx context.Context, userID int64, days int) (*insight.Result, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	view, _, err := s.activity.Analyze(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	return s.composer.Compose(ctx, firstName(user.Name), view), nil
}

// Deliver sends a stored nudge over Slack DM. Called from the worker.
func (s *nudgeService) Deliver(ctx context.Context, nudgeID int64) error {
	nudge, err := s.nudgeStore.GetByID(ctx, nudgeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNudgeNotFound
		}
		return fmt.Errorf("getting nudge: %w", err)
	}
	if nudge.Status == model.NudgeStatusDelivered {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &nudge.UserID, NudgeJobID: &nudge.ID})

	token, err := s.connections.Token(ctx, nudge.UserID, model.PlatformSlack)
	if err != nil {
		return s.failDelivery(ctx, nudge, fmt.Errorf("slack token: %w", err))
	}

	profile, err := s.slack.Profile(ctx, token)
	if err != nil {
		return s.failDelivery(ctx, nudge, fmt.Errorf("slack profile: %w", err))
	}

	if err := s.slack.SendDM(ctx, token, profile.UserID, nudge.Message); err != nil {
		return s.failDelivery(ctx, nudge, fmt.Errorf("sending dm: %w", err))
	}

	if err := s.nudgeStore.MarkDelivered(ctx, nudge.ID); err != nil {
		return fmt.Errorf("marking delivered: %w", err)
	}

	slog.InfoContext(ctx, "nudge delivered", "slack_user", profile.UserID)
	return nil
}

func (s *nudgeService) failDelivery(ctx context.Context, nudge *model.Nudge, cause error) error {
	if err := s.nudgeStore.MarkFailed(ctx, nudge.ID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "marking nudge failed", "error", err)
	}
	return cause
}

func (s *nudgeService) List(ctx context.Context, userID int64, limit int) ([]model.Nudge, error) {
	return s.nudgeStore.ListByUser(ctx, userID, limit)
}

func firstName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}

func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

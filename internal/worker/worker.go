package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"workdiary.app/server/common/logger"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/queue"
	"workdiary.app/server/internal/service"
)

// Consumer is the slice of the Redis consumer the worker needs.
// Satisfied by *queue.RedisConsumer.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Deliverer sends a stored nudge. Satisfied by service.NudgeService.
type Deliverer interface {
	Deliver(ctx context.Context, nudgeID int64) error
}

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  Consumer
	deliverer Deliverer
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, deliverer Deliverer, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		deliverer: deliverer,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "workdiary.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "nudge delivery failed",
				"error", err,
				"message_id", msg.ID,
				"nudge_id", msg.NudgeID,
				"attempt", msg.Attempt)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"nudge_id", msg.NudgeID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage delivers one nudge. Exported so the reclaimer can reuse it.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.deliver_nudge",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:     &msg.UserID,
		NudgeJobID: &msg.NudgeID,
	})

	slog.InfoContext(ctx, "processing nudge delivery",
		"message_id", msg.ID,
		"attempt", msg.Attempt)

	if err := w.deliverer.Deliver(ctx, msg.NudgeID); err != nil {
		sc.RecordError(err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Redelivery after a successful send is safe: Deliver is a no-op
		// once the nudge is marked delivered.
		slog.WarnContext(ctx, "failed to ACK message", "error", err, "message_id", msg.ID)
	}

	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if permanent(err) {
		slog.ErrorContext(ctx, "permanent delivery failure, sending to DLQ",
			"message_id", msg.ID,
			"nudge_id", msg.NudgeID)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"nudge_id", msg.NudgeID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed delivery",
		"message_id", msg.ID,
		"nudge_id", msg.NudgeID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}

// permanent reports failures a retry cannot fix: the user disconnected
// Slack, revoked the token, or the nudge row is gone.
func permanent(err error) bool {
	return errors.Is(err, platform.ErrNotConnected) ||
		errors.Is(err, platform.ErrCredentialInvalid) ||
		errors.Is(err, service.ErrNudgeNotFound)
}

package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NudgeMessage is one delivery request on the stream.
type NudgeMessage struct {
	NudgeID int64
	UserID  int64
	TraceID *string
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, msg NudgeMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg NudgeMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type": string(TaskTypeDeliverNudge),
		"nudge_id":  msg.NudgeID,
		"user_id":   msg.UserID,
		"attempt":   attempt,
	}

	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue nudge: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued nudge delivery", "nudge_id", msg.NudgeID, "user_id", msg.UserID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"workdiary.app/server/common/id"
	"workdiary.app/server/common/llm"
	"workdiary.app/server/common/logger"
	"workdiary.app/server/common/otel"
	"workdiary.app/server/core/config"
	"workdiary.app/server/core/db"
	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/insight"
	"workdiary.app/server/internal/queue"
	"workdiary.app/server/internal/service"
	"workdiary.app/server/internal/store"
	"workdiary.app/server/internal/vault"
	"workdiary.app/server/internal/worker"
)

const maxDeliveryAttempts = 3

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "workdiary worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.RedisGroup,
		"consumer_name", cfg.Queue.RedisConsumer)

	// Different node ID than the server so snowflakes never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:      cfg.Queue.RedisStream,
		Group:       cfg.Queue.RedisGroup,
		Consumer:    cfg.Queue.RedisConsumer,
		DLQStream:   cfg.Queue.RedisDLQ,
		BatchSize:   1, // Deliver one nudge at a time
		Block:       5 * time.Second,
		MaxAttempts: maxDeliveryAttempts,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	tokenVault, err := vault.New(cfg.VaultKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize token vault", "error", err)
		os.Exit(1)
	}

	agg, err := activity.NewAggregator(cfg.Analysis.ReferenceTimezone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load reference timezone", "error", err)
		os.Exit(1)
	}

	composer, err := buildComposer(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize llm clients", "error", err)
		os.Exit(1)
	}

	// The worker never enqueues, so no producer is wired.
	stores := store.NewStores(database.Pool())
	services := service.NewServices(stores, tokenVault, cfg, agg, composer, nil)

	w := worker.New(consumer, services.Nudges(), worker.Config{
		MaxAttempts: maxDeliveryAttempts,
	})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Queue.RedisStream,
		Group:     cfg.Queue.RedisGroup,
		Consumer:  cfg.Queue.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reclaimer first (quick), then the worker (may be mid-delivery).
	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

func buildComposer(cfg config.Config) (*insight.Composer, error) {
	insightClient, err := llm.NewClient(llmConfig(cfg.InsightLLM))
	if err != nil {
		return nil, fmt.Errorf("insight client: %w", err)
	}
	nudgeClient, err := llm.NewClient(llmConfig(cfg.NudgeLLM))
	if err != nil {
		return nil, fmt.Errorf("nudge client: %w", err)
	}
	return insight.NewComposer(insightClient, nudgeClient), nil
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:  c.Provider,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
	}
}

const banner = `
██╗    ██╗██████╗     ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██║    ██║██╔══██╗    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║ █╗ ██║██║  ██║    ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║███╗██║██║  ██║    ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
╚███╔███╔╝██████╔╝    ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
 ╚══╝╚══╝ ╚═════╝      ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`

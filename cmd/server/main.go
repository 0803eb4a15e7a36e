package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"workdiary.app/server/common/id"
	"workdiary.app/server/common/llm"
	"workdiary.app/server/common/logger"
	"workdiary.app/server/common/otel"
	"workdiary.app/server/core/config"
	"workdiary.app/server/core/db"
	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/http/middleware"
	httprouter "workdiary.app/server/internal/http/router"
	"workdiary.app/server/internal/insight"
	"workdiary.app/server/internal/queue"
	"workdiary.app/server/internal/service"
	"workdiary.app/server/internal/store"
	"workdiary.app/server/internal/vault"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "workdiary starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.RedisStream)

	nudgeProducer := queue.NewRedisProducer(redisClient, cfg.Queue.RedisStream, slog.Default())
	defer nudgeProducer.Close()

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

	stores := store.NewStores(database.Pool())
	services := service.NewServices(stores, tokenVault, cfg, agg, composer, nudgeProducer)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
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

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		FrontendURL:  cfg.FrontendURL,
		IsProduction: cfg.IsProduction(),
	})

	return router
}

const banner = `
██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗    ██████╗ ██╗ █████╗ ██████╗ ██╗   ██╗
██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝    ██╔══██╗██║██╔══██╗██╔══██╗╚██╗ ██╔╝
██║ █╗ ██║██║   ██║██████╔╝█████╔╝     ██║  ██║██║███████║██████╔╝ ╚████╔╝
██║███╗██║██║   ██║██╔══██╗██╔═██╗     ██║  ██║██║██╔══██║██╔══██╗  ╚██╔╝
╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗    ██████╔╝██║██║  ██║██║  ██║   ██║
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝    ╚═════╝ ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

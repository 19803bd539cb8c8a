// Command server starts the essay evaluation HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/essay-evaluator/internal/adapter/analyzer/aidetect"
	"github.com/fairyhunter13/essay-evaluator/internal/adapter/analyzer/grammar"
	"github.com/fairyhunter13/essay-evaluator/internal/adapter/analyzer/linguistics"
	"github.com/fairyhunter13/essay-evaluator/internal/adapter/extractor"
	httpserver "github.com/fairyhunter13/essay-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/essay-evaluator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/essay-evaluator/internal/adapter/session"
	"github.com/fairyhunter13/essay-evaluator/internal/app"
	"github.com/fairyhunter13/essay-evaluator/internal/config"
	"github.com/fairyhunter13/essay-evaluator/internal/observability"
	"github.com/fairyhunter13/essay-evaluator/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	sessions := session.New(rdb)

	userRepo := postgres.NewUserRepo(pool)
	essayRepo := postgres.NewEssayRepo(pool)
	friendRepo := postgres.NewFriendRepo(pool)

	gram, err := grammar.New()
	if err != nil {
		slog.Error("grammar rules load failed", slog.Any("error", err))
		os.Exit(1)
	}
	classifier := aidetect.New(aidetect.Config{
		Low:       cfg.AIDetectLow,
		High:      cfg.AIDetectHigh,
		MinTokens: cfg.AIMinTokens,
	})

	evalSvc := usecase.NewEvaluateService(
		extractor.New(), gram, linguistics.New(), classifier,
		cfg.EvaluationTimeout, cfg.AIDetectHigh, cfg.TextPreviewLen,
	)
	essaySvc := usecase.NewEssayService(essayRepo, userRepo)
	friendSvc := usecase.NewFriendService(friendRepo, userRepo)
	authSvc := usecase.NewAuthService(userRepo, sessions, cfg.SessionTTL)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	redisCheck := func(ctx context.Context) error { return sessions.Ping(ctx) }

	srv := httpserver.NewServer(cfg, evalSvc, essaySvc, friendSvc, authSvc, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

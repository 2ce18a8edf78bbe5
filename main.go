// chessarena is a multi-session arena server where LLMs, or an LLM and a
// human, play chess over an OpenAI-compatible streaming API while browsers
// watch through server-sent events.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hailam/chessarena/internal/config"
	"github.com/hailam/chessarena/internal/llm"
	"github.com/hailam/chessarena/internal/server"
	"github.com/hailam/chessarena/internal/session"
)

func main() {
	logger := buildLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg := config.Load(logger)

	limiter := llm.NewLimiter(llm.DefaultRequestGap)
	exchanges := llm.NewExchangeLog(cfg.LLMLogPath, logger)
	client := llm.NewClient(limiter, exchanges, logger)
	catalog := llm.NewModelCatalog(llm.DefaultCatalogTTL, logger)

	registry := session.NewRegistry(logger)
	broadcaster := session.NewBroadcaster()

	stop := make(chan struct{})
	registry.StartReaper(stop)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(cfg, registry, broadcaster, client, catalog, logger).Router(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildLogger makes a production zap logger at the configured level.
func buildLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

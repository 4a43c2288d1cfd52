package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/common/metrics"
	"admissions-intake/internal/common/observability"
	"admissions-intake/internal/docstore"
	"admissions-intake/internal/httpapi"
	"admissions-intake/internal/notify"
	"admissions-intake/internal/session"
	"admissions-intake/internal/statuscache"
	"admissions-intake/internal/submission"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting intake server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Reopen at the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("intake-server", cfg.Tracing)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init document store with retry ---
	var store docstore.Store
	err = retryWithBackoff(func() error {
		var err error
		store, err = docstore.Open(cfg)
		if err != nil {
			return err
		}
		return store.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Document store connection")

	if err != nil {
		zapLog.Fatal("document store failed after retries", zap.Error(err))
	}
	defer store.Close()
	zapLog.Info("Document store connected successfully",
		zap.String("driver", cfg.Storage.Driver))

	// --- Session bootstrap ---
	sessionID := uuid.New().String()
	sess := session.New(cfg, store, log, session.WithObservability(obs))
	defer sess.Close()

	sess.OnStatusChange(func(status string) {
		metrics.SetSessionState(string(sess.State()))
	})

	// Status mirror is optional infrastructure; a missing Redis only costs
	// the mirror, never the session.
	if cfg.Database.Redis.Address != "" {
		cache := statuscache.New(cfg.Database.Redis, sessionID, log)
		if err := cache.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, status mirror disabled", zap.Error(err))
			cache.Close()
		} else {
			defer cache.Close()
			sess.OnStatusChange(cache.Observe)
			zapLog.Info("Redis status mirror enabled", zap.String("sessionId", sessionID))
		}
	}

	// An empty credential bundle leaves the session terminally unavailable.
	// The server still comes up so the status surface stays reachable.
	if err := sess.Bootstrap(ctx); err != nil {
		zapLog.Warn("session bootstrap failed", zap.Error(err))
	}

	// --- Submission controller ---
	ctrlOpts := []submission.Option{
		submission.WithObservability(obs),
		submission.WithDriverLabel(cfg.Storage.Driver),
	}

	if cfg.Notifications.Email.Enabled || cfg.Notifications.Staff.Enabled {
		notifier, err := notify.New(cfg.Notifications, log)
		if err != nil {
			zapLog.Warn("notifier init failed, notifications disabled", zap.Error(err))
		} else {
			ctrlOpts = append(ctrlOpts, submission.WithNotifier(notifier))
		}
	}

	ctrl := submission.NewController(cfg.App.ID, sess, log, ctrlOpts...)

	// --- HTTP server ---
	srv := httpapi.New(cfg.Server.Address, sess, ctrl, log)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Intake server started",
		zap.String("appId", cfg.App.ID),
		zap.String("address", cfg.Server.Address),
		zap.String("sessionId", sessionID),
	)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown error", zap.Error(err))
	}

	zapLog.Info("Intake server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/config"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

// @title                       Kanso Analytics Engine API
// @version                     1.0
// @description                 Streak and completion analytics for habits, tasks and routines.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", "error", err)
	}
	defer a.Close()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	a.worker.Start(workerCtx)

	if cfg.Scheduler.Enabled {
		if err := a.scheduler.Start(workerCtx); err != nil {
			log.Fatal("failed to start reset scheduler", "error", err)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Kanso Analytics Engine running", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("critical server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}

	// The worker drains what is already queued before returning.
	stopWorkers()
	a.worker.Wait()

	log.Info("server stopped gracefully")
}

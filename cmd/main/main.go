package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/app"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/scheduler"
	"gitlab.com/timkado/api/wa-automations/internal/server"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitializeWithFile(cfg.LogLevel, cfg.Log.File); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting WA Automations",
		zap.String("environment", cfg.Environment),
		zap.Int("business_utc_offset_hours", cfg.Automation.BusinessUTCOffsetHours),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		zap.Bool("evolution_configured", cfg.Evolution.APIURL != ""),
		zap.Bool("nats_configured", cfg.NATS.URL != ""),
	)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	application, err := app.New(mainCtx, cfg, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	httpServer := server.NewServer(cfg.Server.Port, application.Repo, logger.Log)
	httpServer.RegisterJob("/automations/reminders", application.Reminders)
	httpServer.RegisterJob("/automations/marketing", application.Marketing)
	if cfg.Metrics.Enabled {
		httpServer.RegisterMetricsHandler(promhttp.Handler())
	} else {
		logger.Log.Info("Metrics endpoint disabled", zap.String("environment", cfg.Environment))
	}
	httpServer.Start()

	var cron *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		cron = scheduler.New(logger.Log)
		if err := cron.Register(cfg.Scheduler.RemindersCron, application.Reminders); err != nil {
			logger.Log.Fatal("Failed to schedule reminders", zap.Error(err))
		}
		if err := cron.Register(cfg.Scheduler.MarketingCron, application.Marketing); err != nil {
			logger.Log.Fatal("Failed to schedule marketing automations", zap.Error(err))
		}
		cron.Start(mainCtx)
	} else {
		logger.Log.Info("Scheduler disabled, runs are triggered over HTTP only")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))

	// Stop triggers first so no new run starts, then let in-flight runs finish.
	var wg sync.WaitGroup
	wg.Add(2)

	utils.SafeGo(func() {
		defer wg.Done()
		if cron == nil {
			return
		}
		logger.Log.Info("[shutdown] Stopping scheduler")
		if err := cron.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Scheduler did not stop in time", zap.Error(err))
		}
	}, shutdownPanic("scheduler"))

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping HTTP server")
		start := time.Now()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
			return
		}
		logger.Log.Info("[shutdown] HTTP server stopped", zap.Duration("duration", time.Since(start)))
	}, shutdownPanic("HTTP server"))

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] Triggers stopped")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	// Cancels runs still pacing so their sleeps return.
	mainCancel()

	if err := application.Close(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Failed to release resources", zap.Error(err))
	}
	logger.Log.Info("WA Automations shutdown complete")
}

// shutdownPanic logs a panic of a stopping component; the deferred Done has already run
func shutdownPanic(component string) utils.RecoverFn {
	return func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping "+component,
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
	}
}

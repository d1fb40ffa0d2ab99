package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade-backend/internal/app"
	"papertrade-backend/internal/config"
	"papertrade-backend/internal/infrastructure/scheduler"
	"papertrade-backend/internal/interfaces/router"
	"papertrade-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer svc.Close()
	log.Info().Str("dialect", svc.DB.Dialector.Name()).Msg("database connected")

	var sched *scheduler.Scheduler
	if cfg.QuickPics.Enabled {
		sched = scheduler.New(svc.Location)
		job := func(ctx context.Context, now time.Time) error {
			_, err := svc.QuickPics.Generate(ctx, now)
			return err
		}
		if err := sched.Add(scheduler.Daily, "quick_pics", job); err != nil {
			log.Fatal().Err(err).Msg("schedule quick pics")
		}
		sched.Start()
		// Catch up if the process was down at midnight. Existing slots are skipped.
		go sched.Run("quick_pics", job)
		if next, err := sched.Next(scheduler.Daily, time.Now()); err == nil {
			log.Info().Time("next_run", next).Msg("quick pics scheduled")
		}
	}

	fiberApp := router.CreateApp(cfg, svc)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server running")
		errCh <- fiberApp.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server stopped")
	}

	if sched != nil {
		sched.Stop()
	}
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"veg_market_report/internal/app"
	"veg_market_report/internal/schedule"

	"github.com/rs/zerolog/log"
)

func main() {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := app.InitializeSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize table source")
	}

	job := app.NewJob(cfg, source, app.InitializeSender(cfg), app.InitializeNotificationClient(cfg))

	if cfg.RunMode == app.RunModeOnce {
		if _, err := job.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Market report run failed")
		}
		return
	}

	runner, err := schedule.NewRunner(ctx, cfg.Schedule, cfg.Location, func(ctx context.Context) {
		if _, err := job.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Market report run failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("Invalid report schedule")
	}

	runner.Run(ctx)
	log.Info().Msg("Scheduler stopped")
}

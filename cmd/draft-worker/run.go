package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidready/draft-service/internal/config"
	"github.com/bidready/draft-service/internal/events"
	"github.com/bidready/draft-service/internal/generator"
	"github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/worker"
	"github.com/bidready/draft-service/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the draft worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		flush := log.Setup(cfg.Service.LogLevel)
		defer flush()

		logger := zap.S().Named("draft_worker")
		logger.Info("starting draft worker")
		defer logger.Info("draft worker stopped")
		logger.Infof("Using config: %s", cfg)

		db, err := store.InitDB(cfg)
		if err != nil {
			logger.Fatalf("initializing data store: %v", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			logger.Fatalf("running initial migration: %v", err)
		}

		producer := events.NewEventProducer(&events.StdoutWriter{}, events.WithOutputTopic(cfg.Service.EventTopic))
		defer producer.Close()

		executor := worker.NewExecutor(
			s,
			generator.New(generator.NewTidyEnhancer()),
			producer,
			cfg.Worker.ID,
			cfg.Worker.MaxAttempts,
			cfg.Worker.MarketMultiplier,
		)

		scheduler := worker.NewScheduler(worker.SchedulerConfig{
			WorkerID:     cfg.Worker.ID,
			PollInterval: cfg.Worker.PollInterval,
			Lease:        cfg.Worker.LeaseDuration,
			BatchSize:    cfg.Worker.BatchSize,
		}, s, executor)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		scheduler.Start(ctx)
		<-ctx.Done()

		logger.Info("stopping draft worker...")
		scheduler.Stop()

		return nil
	},
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidready/draft-service/internal/config"
	"github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		flush := log.Setup(cfg.Service.LogLevel)
		defer flush()

		logger := zap.S().Named("migrate")
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

		logger.Info("db migrated")
		return nil
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sefazor/events-backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDatabase(db, logger)

		if err := database.RunMigrations(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"freelance-tax/internal/config"
	"freelance-tax/internal/logger"
	"freelance-tax/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the PostgreSQL schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.WithComponent("migrate")
		if cfg.Store != config.StorePostgres {
			return errors.New("migrate needs STORE=postgres")
		}
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		db, err := storage.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := storage.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Info().Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package main

import (
	"errors"

	"datahub-backend/internal/application/legacy"
	"datahub-backend/internal/infrastructure/exportwinsapi"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateLegacyWinsCmd = &cobra.Command{
	Use:   "migrate-legacy-wins",
	Short: "Copy wins, breakdowns and advisers from the legacy export wins service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ExportWinsServiceBaseURL == "" {
			return errors.New("EXPORT_WINS_SERVICE_BASE_URL is not set")
		}
		client := exportwinsapi.NewClient(cfg.ExportWinsServiceBaseURL, cfg.ExportWinsHawkID, cfg.ExportWinsHawkKey)
		m := &legacy.Migrator{DB: deps.DB, Source: client}
		_, err := m.MigrateAll(cmd.Context())
		return err
	},
}

var updateLegacyWinTotalsCmd = &cobra.Command{
	Use:   "update-legacy-win-totals",
	Short: "Recalculate the stored totals of migrated wins",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := &legacy.Migrator{DB: deps.DB}
		n, err := m.UpdateLegacyWinTotals(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("wins", n).Msg("legacy win totals updated")
		return nil
	},
}

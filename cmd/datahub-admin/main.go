// Command datahub-admin runs maintenance jobs against the Data Hub database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"datahub-backend/bootstrap"
	"datahub-backend/internal/app"
	"datahub-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfg  *config.Config
	deps *app.Deps
)

var rootCmd = &cobra.Command{
	Use:           "datahub-admin",
	Short:         "Data Hub maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		bootstrap.ConfigureLogging(cfg)
		if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
			return nil
		}
		deps, err = app.Open(cfg)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if deps == nil {
			return nil
		}
		return deps.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(syncSearchCmd)
	rootCmd.AddCommand(migrateLegacyWinsCmd)
	rootCmd.AddCommand(updateLegacyWinTotalsCmd)
	addMaintenanceCommands(rootCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

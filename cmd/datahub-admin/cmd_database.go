package main

import (
	"errors"
	"fmt"

	authsvc "datahub-backend/internal/application/auth"
	searchsvc "datahub-backend/internal/application/search"
	"datahub-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.AutoMigrate(deps.DB.WithContext(cmd.Context())); err != nil {
			return err
		}
		log.Info().Msg("database migrated")
		return nil
	},
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password <adviser-id> <password>",
	Short: "Set the login password of an adviser",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid adviser id: %w", err)
		}
		svc := &authsvc.Service{DB: deps.DB}
		err = svc.SetPassword(cmd.Context(), id, args[1])
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("adviser %s does not exist", id)
		}
		if err != nil {
			return err
		}
		log.Info().Str("adviser_id", id.String()).Msg("password updated")
		return nil
	},
}

var syncSearchCmd = &cobra.Command{
	Use:   "sync-search",
	Short: "Reindex every searchable model into Elasticsearch",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deps.Search == nil {
			return errors.New("ELASTICSEARCH_URL is not set")
		}
		svc := &searchsvc.Service{DB: deps.DB, Backend: deps.Search}
		counts, err := svc.SyncAll(cmd.Context())
		if err != nil {
			return err
		}
		for index, n := range counts {
			log.Info().Str("index", index).Int("documents", n).Msg("index synced")
		}
		return nil
	},
}

// Package app opens the shared dependencies and builds the application services
// used by both the HTTP server and the admin CLI.
package app

import (
	"context"
	"errors"

	advisersvc "datahub-backend/internal/application/adviser"
	authsvc "datahub-backend/internal/application/auth"
	companysvc "datahub-backend/internal/application/company"
	contactsvc "datahub-backend/internal/application/contact"
	datasetsvc "datahub-backend/internal/application/dataset"
	"datahub-backend/internal/application/emails"
	exportwinsvc "datahub-backend/internal/application/exportwin"
	interactionsvc "datahub-backend/internal/application/interaction"
	investmentsvc "datahub-backend/internal/application/investment"
	searchsvc "datahub-backend/internal/application/search"
	"datahub-backend/internal/config"
	"datahub-backend/internal/infrastructure/database"
	esclient "datahub-backend/internal/infrastructure/search"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the long lived connections.
type Deps struct {
	DB     *gorm.DB
	Search *esclient.Client
	Mailer emails.Sender
}

// Open connects to Postgres and, when configured, Elasticsearch.
func Open(cfg *config.Config) (*Deps, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	d := &Deps{
		DB:     db,
		Mailer: &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
	}
	if cfg.ElasticsearchURL != "" {
		es, err := esclient.New(cfg.ElasticsearchURL, cfg.SearchIndexPrefix)
		if err != nil {
			return nil, err
		}
		d.Search = es
	} else {
		log.Warn().Msg("ELASTICSEARCH_URL is not set, search is disabled")
	}
	return d, nil
}

// Close releases the database pool.
func (d *Deps) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (d *Deps) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Services holds one instance of every application service.
type Services struct {
	Auth        *authsvc.Service
	Adviser     *advisersvc.Service
	Company     *companysvc.Service
	Contact     *contactsvc.Service
	Interaction *interactionsvc.Service
	Investment  *investmentsvc.Service
	ExportWin   *exportwinsvc.Service
	Search      *searchsvc.Service
	Dataset     *datasetsvc.Service
}

// NewServices wires the services to d.
func NewServices(cfg *config.Config, d *Deps) *Services {
	// A nil *esclient.Client must not end up inside the interfaces.
	var indexer searchsvc.Indexer
	var backend searchsvc.Backend
	if d.Search != nil {
		indexer, backend = d.Search, d.Search
	}
	return &Services{
		Auth:        &authsvc.Service{DB: d.DB},
		Adviser:     &advisersvc.Service{DB: d.DB},
		Company:     &companysvc.Service{DB: d.DB, Search: indexer},
		Contact:     &contactsvc.Service{DB: d.DB, Search: indexer},
		Interaction: &interactionsvc.Service{DB: d.DB, Search: indexer},
		Investment:  &investmentsvc.Service{DB: d.DB, Search: indexer},
		ExportWin: &exportwinsvc.Service{
			DB:                   d.DB,
			Search:               indexer,
			Mailer:               d.Mailer,
			ClientReviewURL:      cfg.ClientReviewWinURL,
			LeadOfficerReviewURL: cfg.LeadOfficerReviewWinURL,
		},
		Search:  &searchsvc.Service{DB: d.DB, Backend: backend},
		Dataset: &datasetsvc.Service{DB: d.DB, IncludeLegacy: cfg.DatasetIncludeLegacyWins},
	}
}

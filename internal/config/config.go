package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	ElasticsearchURL  string
	SearchIndexPrefix string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Endpoint         string // optional, for MinIO/localstack

	ExportWinsServiceBaseURL string
	ExportWinsHawkID         string
	ExportWinsHawkKey        string

	SendinblueAPIKey string
	MailFrom         string

	ClientReviewWinURL      string // EXPORT_WIN_CLIENT_REVIEW_WIN_URL, token is appended
	LeadOfficerReviewWinURL string // EXPORT_WIN_LEAD_OFFICER_REVIEW_WIN_URL, win id is appended

	// DatasetIncludeLegacyWins adds migrated wins to the export win datasets.
	DatasetIncludeLegacyWins bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AWS_REGION", "eu-west-2")
	viper.SetDefault("MAIL_FROM", "noreply@datahub.trade.gov.uk")
	viper.SetDefault("ES_INDEX_PREFIX", "datahub-")

	return &Config{
		Env:                      viper.GetString("APP_ENV"),
		Port:                     viper.GetString("PORT"),
		LogLevel:                 viper.GetString("LOG_LEVEL"),
		SessionSecret:            viper.GetString("SESSION_SECRET"),
		DatabaseURL:              viper.GetString("DATABASE_URL"),
		RedisURL:                 viper.GetString("REDIS_URL"),
		FrontendURLEndsWith:      viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:              viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:        strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:           viper.GetString("HEALTH_ADMIN_KEY"),
		ElasticsearchURL:         viper.GetString("ELASTICSEARCH_URL"),
		SearchIndexPrefix:        viper.GetString("ES_INDEX_PREFIX"),
		AWSRegion:                viper.GetString("AWS_REGION"),
		AWSAccessKeyID:           viper.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:       viper.GetString("AWS_SECRET_ACCESS_KEY"),
		S3Endpoint:               viper.GetString("S3_ENDPOINT"),
		ExportWinsServiceBaseURL: strings.TrimRight(viper.GetString("EXPORT_WINS_SERVICE_BASE_URL"), "/"),
		ExportWinsHawkID:         viper.GetString("EXPORT_WINS_HAWK_ID"),
		ExportWinsHawkKey:        viper.GetString("EXPORT_WINS_HAWK_KEY"),
		SendinblueAPIKey:         viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:                 viper.GetString("MAIL_FROM"),
		ClientReviewWinURL:       viper.GetString("EXPORT_WIN_CLIENT_REVIEW_WIN_URL"),
		LeadOfficerReviewWinURL:  viper.GetString("EXPORT_WIN_LEAD_OFFICER_REVIEW_WIN_URL"),
		DatasetIncludeLegacyWins: viper.GetBool("EXPORT_WINS_LEGACY_DATASET"),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

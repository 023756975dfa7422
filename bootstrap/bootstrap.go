// Package bootstrap loads configuration and opens every connection the
// server entrypoints need. The Vercel handler imports this package, not internal.
package bootstrap

import (
	"os"
	"time"

	"datahub-backend/internal/app"
	"datahub-backend/internal/config"
	"datahub-backend/internal/interfaces/router"
	"datahub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is a ready to serve Fiber app plus the connections behind it.
type Server struct {
	Config *config.Config
	App    *fiber.App
	Deps   *app.Deps
	Redis  *redis.Client
}

// ConfigureLogging sets the global zerolog level and, outside production, a console writer.
func ConfigureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// New creates the Fiber app with its database, search and Redis connections.
func New() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ConfigureLogging(cfg)

	deps, err := app.Open(cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	return &Server{
		Config: cfg,
		App:    router.CreateApp(cfg, deps, rdb),
		Deps:   deps,
		Redis:  rdb,
	}, nil
}

// Close releases the Redis client and the database pool.
func (s *Server) Close() error {
	if err := s.Redis.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	return s.Deps.Close()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datahub-backend/bootstrap"

	"github.com/rs/zerolog/log"
)

func main() {
	server, err := bootstrap.New()
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := server.Deps.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	log.Info().Msg("postgres connected")
	if err := server.Redis.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Msg("redis connected")
	if server.Deps.Search != nil {
		if err := server.Deps.Search.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("elasticsearch is unreachable")
		}
	}
	cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := server.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	port := server.Config.Port
	log.Info().Str("port", port).Msgf("health check: http://localhost:%s/health/json", port)
	if err := server.App.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"codeclive/internal/app"
	"codeclive/internal/config"
	"codeclive/internal/logging"
)

// @title Code Live Relay API
// @version 1.0
// @description Live collaborative coding rooms: mentor, learners, shared buffer
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("module", "main").Msg("started")

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start relay")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("module", "main").Str("port", cfg.Server.Port).Msg("server starting")
		log.Info().Msg("Endpoints:")
		log.Info().Msg("  GET  /health")
		log.Info().Msg("  GET  /v1/auth/me")
		log.Info().Msg("  GET  /v1/liverooms")
		log.Info().Msg("  GET  /v1/liverooms/{roomId}")
		log.Info().Msg("  GET  /v1/liverooms/{roomId}/roster")
		log.Info().Msg("  GET  /v1/liverooms/mine")
		log.Info().Msg("  GET  /v1/liverooms/{roomId}/audit")
		log.Info().Msg("  POST /v1/liverooms/{roomId}/end")
		log.Info().Msg("  WS   /v1/ws/liverooms?token=")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Str("module", "main").Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.Close(shutdownCtx)

	log.Info().Str("module", "main").Msg("server exited")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"estatehub_backend/internal/inquiry"
	"estatehub_backend/internal/model"
	"estatehub_backend/internal/server"
	"estatehub_backend/pkg/config"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/email"
	"estatehub_backend/pkg/logging"
	"estatehub_backend/pkg/storage"
	"estatehub_backend/pkg/utils/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.Logging, cfg.Server.Env)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to database")
	}
	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize media storage")
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize email sender")
	}
	mail, err := email.NewService(sender, cfg.Email.From)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load email templates")
	}
	dispatch := email.NewDispatcher(15 * time.Second)

	tokens := jwt.NewIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	deps := server.Wire(db, store, tokens, inquiry.NewEmailNotifier(mail, dispatch), cfg.Catalog.PriceRescaleThreshold)
	app := server.New(deps)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("Server is running")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}

	// pending notification emails finish before the pool closes
	dispatch.Wait()
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("Could not close database")
	}
}

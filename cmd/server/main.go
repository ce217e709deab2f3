package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitflow/crm-backend/internal/api"
	mongodb "github.com/admitflow/crm-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/admitflow/crm-backend/internal/infrastructure/db/redis"
	"github.com/admitflow/crm-backend/internal/pkg/config"
	"github.com/admitflow/crm-backend/pkg/logger"
)

const shutdownTimeout = 20 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// --- MongoDB ---
	log.Info().Str("database", cfg.Mongo.Database).Msg("connecting to mongodb")
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	if err := mongodb.NewLeadRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure lead indexes: %w", err)
	}
	if err := mongodb.NewStatusLogRepository(client, db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure status log indexes: %w", err)
	}

	// --- Redis ---
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connecting to redis")
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	// --- HTTP server ---
	e := api.NewRouter(client, db, rdb, cfg.JWTSecret, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/orchestrator/reconcile"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// The app binary owns schema migrations; the worker just connects.
	db, err := sql.Open("pgx", cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	blobs, err := storage.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build artifact store: %v", err)
	}

	projectRepo := repository.NewProjectRepo(db)
	operationRepo := repository.NewOperationRepo(db)

	if err := reconcile.Run(ctx, logger, cfg, pgmqClient, projectRepo, operationRepo, blobs); err != nil {
		logger.Fatal().Msgf("Reconcile orchestrator failed: %v", err)
	}
	logger.Info().Msg("Reconcile orchestrator stopped gracefully")
}

package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"app/docs"
	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/database"
	"app/internal/middleware"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the whole application together and returns the root handler
// plus the DB handle for shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	dsn := normalizeDSN(cfg)
	db, err := database.Open(dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// Some repositories ride the pgx pool directly for transaction support.
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create pgx pool")
		db.Close()
		return nil, nil, err
	}

	blobs, err := storage.FromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build artifact store")
		db.Close()
		return nil, nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Pub/Sub and Secret Manager are optional; without GCP credentials the
	// editor skips event publishing and user-key storage.
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			db.Close()
			return nil, nil, err
		}
		publisher = p
	} else {
		logger.Warn().Msg("GCP project not configured; edit events disabled")
	}
	var secrets service.SecretManagerService
	if cfg.GCPProjectID != "" {
		sm, err := service.NewSecretManagerService(context.Background(), cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Secret Manager unavailable; user API keys disabled")
		} else {
			secrets = sm
		}
	}

	queue := pgmq.New(db)

	projectRepo := repository.NewProjectRepo(db)
	operationRepo := repository.NewOperationRepo(db)
	planRepo := repository.NewPlanRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	aiModelRepo := repository.NewAIModelRepo(db)

	quotaSvc := service.NewQuotaService(planRepo, usageRepo, cfg.DefaultPlanName, logger)
	aiSvc := service.NewAIService(aiModelRepo, cfg, secrets, logger)
	projectSvc := service.NewProjectService(projectRepo, blobs, logger)
	editorSvc := service.NewEditorService(
		projectRepo, operationRepo, quotaSvc, aiSvc, blobs,
		service.IdentityApplier,
		publisher, cfg.PubSubEditTopic,
		queue, cfg.ReconcileQueueName,
		logger,
	)

	editorHandler := handler.NewEditorHandler(editorSvc, projectSvc, validate)
	projectHandler := handler.NewProjectHandler(projectSvc, editorHandler, validate)
	planHandler := handler.NewPlanHandler(quotaSvc, validate)
	modelHandler := handler.NewModelHandler(aiSvc, secrets, validate)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	apiV1Mux := http.NewServeMux()
	projectHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	planHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	modelHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		doc := docs.SwaggerInfo.ReadDoc()
		w.Write([]byte(doc))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, nil
}

// normalizeDSN adjusts the connection string for the runtime environment:
// local development disables SSL, everything else forces the simple query
// protocol for pooler compatibility.
func normalizeDSN(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	appendParam := func(dsn, param string) string {
		if !isURL {
			return dsn + " " + param
		}
		if strings.Contains(dsn, "?") {
			return dsn + "&" + param
		}
		return dsn + "?" + param
	}
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn = appendParam(dsn, "sslmode=disable")
	}
	if cfg.Environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn = appendParam(dsn, "prefer_simple_protocol=true")
	}
	return dsn
}

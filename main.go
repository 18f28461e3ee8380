package main

import (
	"log"
	"net/http"

	gorilla "github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/databridge-io/databridge/pkg/adapters/store/clickhouse"
	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/config"
	"github.com/databridge-io/databridge/pkg/handlers"
	"github.com/databridge-io/databridge/pkg/middleware"
	"github.com/databridge-io/databridge/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Int("capsule_ttl_minutes", cfg.Capsule.TTLMinutes))

	capsules := capsule.NewService(cfg.Capsule.Secret, cfg.Capsule.TTL())
	capsuleMiddleware := capsule.NewMiddleware(logger)
	transferService := services.NewTransferService(capsules, clickhouse.Connect, logger)

	mux := http.NewServeMux()

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	transferHandler := handlers.NewTransferHandler(transferService, logger)
	transferHandler.RegisterRoutes(mux, capsuleMiddleware)

	handler := middleware.RequestLogger(logger)(mux)
	handler = gorilla.CORS(
		gorilla.AllowedOrigins(cfg.AllowedOrigins),
		gorilla.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(handler)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting databridge", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger except in local development, where a
// human-readable development config is friendlier.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

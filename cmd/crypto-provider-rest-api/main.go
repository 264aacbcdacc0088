// cmd/crypto-provider-rest-api/main.go
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

	v1 "github.com/MGTheTrain/crypto-providers/internal/api/rest/v1"
	"github.com/MGTheTrain/crypto-providers/internal/app"
	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/gin-contrib/cors"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// An unset CONFIG_PATH runs on defaults and CRYPTO_PROVIDERS_* overrides
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log, err := logger.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to get logger: %w", err)
	}

	deps, err := initializeDependencies(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.providers.Close(); err != nil {
			log.Error("failed to close providers ", err)
		}
	}()

	return startServerWithGracefulShutdown(cfg, deps, log)
}

// appDependencies holds all initialized application components
type appDependencies struct {
	providers     *app.ProviderSet
	catalog       catalog.CatalogService
	hashing       catalog.HashingService
	keyInspection keys.KeyInspectionService
}

// initializeDependencies registers the configured providers and builds the services over them
func initializeDependencies(cfg *config.AppConfig, log logger.Logger) (*appDependencies, error) {
	providers, err := app.NewProviderSet(&cfg.Providers, log)
	if err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}

	deps, err := initializeApplicationServices(providers, log)
	if err != nil {
		_ = providers.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return deps, nil
}

// initializeApplicationServices sets up all application services
func initializeApplicationServices(providers *app.ProviderSet, log logger.Logger) (*appDependencies, error) {
	catalogService, err := app.NewCatalogService(providers.Registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	hashingService, err := app.NewHashingService(providers.Registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create hashing service: %w", err)
	}

	parser, err := providers.Parser()
	if err != nil {
		return nil, fmt.Errorf("failed to get key parser: %w", err)
	}

	keyInspectionService, err := app.NewKeyInspectionService(parser, providers.Registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create key inspection service: %w", err)
	}

	log.Info("Application services initialized successfully")
	return &appDependencies{
		providers:     providers,
		catalog:       catalogService,
		hashing:       hashingService,
		keyInspection: keyInspectionService,
	}, nil
}

// startServerWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func startServerWithGracefulShutdown(cfg *config.AppConfig, deps *appDependencies, log logger.Logger) error {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Rest.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1.SetupRoutes(r,
		deps.catalog,
		deps.hashing,
		deps.keyInspection,
		cfg.Rest.MaxKeyFileSize,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Rest.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attack
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Starting server on port ", cfg.Rest.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-quit:
		log.Info(fmt.Sprintf("Received signal %v, initiating graceful shutdown", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

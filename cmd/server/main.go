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

	"dealintake/internal/config"
	"dealintake/internal/handler"
	"dealintake/internal/logging"
	"dealintake/internal/metrics"
	"dealintake/internal/model"
	"dealintake/internal/repository"
	"dealintake/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// store is what the server needs from either storage driver
type store interface {
	service.Store
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("deal intake service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)
	for _, w := range cfg.Warnings {
		logger.Warn("configuration", zap.String("warning", w))
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	repo, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer repo.Close()

	var patterns *model.PatternOverride
	if cfg.Parser.PatternsFile != "" {
		patterns, err = config.LoadPatternFile(cfg.Parser.PatternsFile)
		if err != nil {
			logger.Warn("pattern file ignored, using defaults", zap.Error(err))
		}
	}

	m := metrics.New()
	intakeService := service.NewIntakeService(repo, service.Options{
		MinSegmentLength:   cfg.Parser.MinSegmentLength,
		DuplicateThreshold: cfg.Dedupe.Threshold,
		HistoryWindow:      cfg.HistoryWindow(),
		MatchMinScore:      cfg.Matching.MinScore,
		MatchTopN:          cfg.Matching.TopN,
		ContactRefresh:     cfg.Contacts.RefreshInterval,
		Patterns:           patterns,
	}, logger, m)

	logger.Info("Services initialized")

	router := handler.NewRouter(intakeService, handler.RouterOptions{
		Logger:  logger,
		Metrics: m,
		Store:   repo,
		Build: handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: cfg.Server.AllowedMethods,
		AllowedHeaders: cfg.Server.AllowedHeaders,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Dedupe.PruneInterval > 0 {
		go pruneHistory(ctx, repo, cfg, logger)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func openStore(cfg *config.Config, logger *zap.Logger) (store, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to PostgreSQL database")

		if cfg.PostgreSQL.AutoMigrate {
			version, err := repo.Migrate()
			if err != nil {
				repo.Close()
				return nil, err
			}
			logger.Info("Database schema up to date", zap.Uint("version", version))
		}
		return repo, nil

	default:
		var seed repository.Seed
		if cfg.Storage.SeedFile != "" {
			var err error
			seed, err = repository.LoadSeedFile(cfg.Storage.SeedFile)
			if err != nil {
				return nil, err
			}
		}
		logger.Info("Using in-memory storage",
			zap.Int("inventory", len(seed.Inventory)),
			zap.Int("active_deals", len(seed.ActiveDeals)),
			zap.Int("contacts", len(seed.Contacts)),
		)
		return repository.NewMemoryStore(seed), nil
	}
}

// pruneHistory drops history entries that have left the dedupe window
func pruneHistory(ctx context.Context, repo store, cfg *config.Config, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.Dedupe.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cfg.HistoryWindow())
			removed, err := repo.PruneHistory(ctx, cutoff)
			if err != nil {
				logger.Warn("history prune failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("history pruned", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
			}
		}
	}
}

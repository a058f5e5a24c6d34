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

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	domainRepo "buswatch-service/internal/domain/repository"
	"buswatch-service/internal/infrastructure/config"
	"buswatch-service/internal/infrastructure/oauth"
	"buswatch-service/internal/infrastructure/persistence"
	"buswatch-service/internal/infrastructure/router"
	"buswatch-service/internal/infrastructure/scheduler"
	"buswatch-service/internal/interface/gmail"
	"buswatch-service/internal/interface/repository"
	"buswatch-service/internal/interface/shohoz"
	"buswatch-service/internal/usecase"
	"buswatch-service/pkg/logger"
	"buswatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"
)

func main() {
	// Bootstrap logger until LOG_LEVEL is known
	log := logger.NewLogger("info")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		if domain.IsConfig(err) {
			log.Error("Invalid configuration", "error", err)
		} else {
			log.Error("Failed to load config", "error", err)
		}
		log.Sync()
		os.Exit(1)
	}

	log = logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Buswatch Service", "version", cfg.AppVersion, "journeys", len(cfg.Journeys))

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics("buswatch", prometheus.DefaultRegisterer)

	// Snapshot store
	snapshots, closeStore, err := newSnapshotStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up snapshot store", "backend", cfg.SnapshotBackend, "error", err)
	}
	defer closeStore()

	// Notification transports
	messengers := router.NewMessengerRouter(log)
	if cfg.UsesTarget(config.TargetTelegram) {
		messengers.Register(repository.NewTelegramRepository(cfg.TelegramAPIURL, cfg.TelegramBotToken, log))
	}
	if cfg.UsesTarget(config.TargetEmail) {
		gmailOAuth := oauth.NewGmailOAuth(
			cfg.GmailClientID,
			cfg.GmailClientSecret,
			cfg.GmailRefreshToken,
			"",
			log,
		)
		gmailService, err := gmail.NewGmailService(ctx, cfg.GmailSender, log,
			option.WithTokenSource(gmailOAuth.GetTokenSource(ctx)))
		if err != nil {
			log.Fatal("Failed to create Gmail service", "error", err)
		}
		messengers.Register(gmailService)
	}
	messengers.Register(repository.NewLogRepository(log))

	fetcher := shohoz.NewListingFetcher(cfg.SearchBaseURL, cfg.UserAgent, cfg.FetchTimeout, log)

	processor := usecase.NewJourneyProcessor(fetcher, snapshots, messengers, usecase.ProcessorOptions{
		NotifyTimeout:       cfg.NotifyTimeout,
		NotifyFailurePolicy: usecase.NotifyFailurePolicy(cfg.NotifyFailurePolicy),
		CorruptionPolicy:    usecase.CorruptionPolicy(cfg.SnapshotCorruptionPolicy),
		BookingURL: func(j entity.Journey) string {
			return shohoz.SearchURL(cfg.SearchBaseURL, j)
		},
	}, log)

	orchestrator := usecase.NewJourneyOrchestrator(processor, cfg.Journeys, appMetrics, log)

	sched, err := scheduler.New(cfg.CheckSchedule, orchestrator, appMetrics, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", "schedule", cfg.CheckSchedule, "error", err)
	}
	sched.Start(ctx)

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop in-flight cycles
	sched.Stop()

	log.Info("Buswatch Service stopped")
}

// newSnapshotStore connects the configured snapshot backend. The returned
// func releases the backend connection.
func newSnapshotStore(ctx context.Context, cfg *config.Config, log logger.Logger) (domainRepo.SnapshotRepository, func(), error) {
	noop := func() {}

	switch cfg.SnapshotBackend {
	case config.BackendRedis:
		log.Info("Connecting to Redis")
		client, err := persistence.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewRedisSnapshotRepository(client), func() {
			if err := client.Close(); err != nil {
				log.Error("Redis close error", "error", err)
			}
		}, nil

	case config.BackendMongo:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, noop, err
		}
		db := persistence.GetDatabase(client, cfg.MongoDB)
		return repository.NewMongoSnapshotRepository(db), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		}, nil

	case config.BackendPostgres:
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgresDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		store := repository.NewGormSnapshotRepository(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, noop, fmt.Errorf("migrate snapshots: %w", err)
		}
		return store, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil

	default:
		store, err := repository.NewFileSnapshotRepository(cfg.SnapshotDir, log)
		return store, noop, err
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateful/plateful-api/internal/cache"
	"github.com/plateful/plateful-api/internal/config"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/logger"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"github.com/plateful/plateful-api/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("dashboard_window_days", cfg.DashboardWindowDays),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	mealRepo := database.NewMealRepository(db)
	recipeRepo := database.NewRecipeRepository(db)
	mealTypeRepo := database.NewMealTypeRepository(db)
	familyRepo := database.NewFamilyRepository(db)
	prefsRepo := database.NewPreferencesRepository(db)

	// Snapshot cache
	snapshotTTL := time.Duration(cfg.SnapshotTTLSeconds) * time.Second
	snapshots, err := cache.New(cfg.RedisURL, snapshotTTL)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_snapshot_cache", zap.Error(err))
	}
	zapLogger.Info("snapshot_cache_initialized",
		zap.Duration("ttl", snapshotTTL),
	)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Suggestion service (optional; suggestion jobs fail gracefully
	// without it)
	var suggestService *suggest.Service
	if cfg.OpenAIKey != "" {
		provider := suggest.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		suggestService = suggest.NewService(provider, zapLogger)
		zapLogger.Info("suggestion_service_initialized",
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("openai_key_not_configured_suggestion_jobs_will_fail")
	}

	// Build the job processor
	refresher := workers.NewRefresher(mealRepo, recipeRepo, mealTypeRepo, snapshots, cfg.DashboardWindowDays, zapLogger)
	suggester := workers.NewSuggester(mealRepo, recipeRepo, prefsRepo, suggestService, snapshots, zapLogger)
	processor := workers.NewProcessor(refresher, suggester, jobQueue, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Periodic warmup keeps recently active families' snapshots fresh
	warmer := workers.NewWarmer(jobQueue, familyRepo, 30*time.Minute, zapLogger)
	go func() {
		if err := warmer.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("warmer_stopped_with_error", zap.Error(err))
		}
	}()

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	zapLogger.Info("worker_started_consuming_messages")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := processor.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received_stopping_worker")

	cancel()

	zapLogger.Info("worker_stopped")
}

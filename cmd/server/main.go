package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/plateful/plateful-api/internal/cache"
	"github.com/plateful/plateful-api/internal/config"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/handlers"
	"github.com/plateful/plateful-api/internal/logger"
	"github.com/plateful/plateful-api/internal/middleware"
	"github.com/plateful/plateful-api/internal/models"
	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/oidc"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"github.com/plateful/plateful-api/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

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

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Int("dashboard_window_days", cfg.DashboardWindowDays),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "plateful-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
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

	// Connect to Redis for rate limiting
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Snapshot cache shares the Redis instance with the rate limiter
	snapshotTTL := time.Duration(cfg.SnapshotTTLSeconds) * time.Second
	snapshots, err := cache.New(cfg.RedisURL, snapshotTTL)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_snapshot_cache", zap.Error(err))
	}
	zapLogger.Info("snapshot_cache_initialized",
		zap.Duration("ttl", snapshotTTL),
	)

	// Connect to RabbitMQ for the job queue (required)
	// Retry connection with exponential backoff to handle RabbitMQ startup delays
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var jobQueue queue.JobQueue
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			break
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
	}

	// Initialize repositories
	mealRepo := database.NewMealRepository(db)
	recipeRepo := database.NewRecipeRepository(db)
	mealTypeRepo := database.NewMealTypeRepository(db)
	familyRepo := database.NewFamilyRepository(db)
	prefsRepo := database.NewPreferencesRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)
	activityRepo := database.NewMemberActivityRepository(db)

	// Initialize OIDC services
	oidcProvider := oidc.NewProvider(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCRedirectURI)
	jwksManager := oidc.NewJWKSManager()
	verifier := oidc.NewVerifier(jwksManager, cfg.OIDCIssuer, cfg.OIDCJWKSURL, cfg.OIDCAudience)

	var oidcClient *oidc.Client
	if cfg.OIDCClientSecret != "" {
		oidcClient = oidc.NewClient(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURI)
	}

	// Initialize the suggestion service when an API key is configured
	var suggestService *suggest.Service
	if cfg.OpenAIKey != "" {
		provider := suggest.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		suggestService = suggest.NewService(provider, zapLogger)
		zapLogger.Info("suggestion_service_initialized",
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("openai_key_not_configured_suggestions_degraded")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(oidcProvider, oidcClient)
	dashboardHandler := handlers.NewDashboardHandler(mealRepo, recipeRepo, mealTypeRepo, cfg.DashboardWindowDays, zapLogger)
	mealHandler := handlers.NewMealHandler(mealRepo, recipeRepo, zapLogger, handlers.WithMealJobQueue(jobQueue))
	recipeHandler := handlers.NewRecipeHandler(recipeRepo, zapLogger, handlers.WithRecipeJobQueue(jobQueue))
	mealTypeHandler := handlers.NewMealTypeHandler(mealTypeRepo)
	familyHandler := handlers.NewFamilyHandler(familyRepo, prefsRepo, zapLogger)
	suggestionHandler := handlers.NewSuggestionHandler(snapshots, suggestService, mealRepo, recipeRepo, prefsRepo, zapLogger)
	healthChecker := handlers.NewHealthCheckerWithDeps(db, snapshots, jobQueue)

	// Setup router
	r := mux.NewRouter()

	// Apply middleware (order matters - executed in reverse order of registration)
	// Note: In gorilla/mux, middleware executes in reverse order of registration
	// Middleware registered LAST executes FIRST (outermost wrapper)
	zapLogger.Info("setting_up_middleware")

	// Outermost middleware (executes first):
	// 0. OpenTelemetry tracing (if enabled)
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("plateful-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 2. CORS (load from DB, hot-reload; fallback to FRONTEND_URL)
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, 1*time.Minute)
	r.Use(corsReloader.Middleware())
	// Rate limit middleware (applied selectively to specific routes, not globally)
	rateLimitReloader := middleware.NewRateLimitReloader(redisLimiter.Client(), ratelimitConfigRepo, models.DefaultRateLimit, zapLogger, 1*time.Minute)
	if rateLimitReloader == nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader")
	}
	rateLimitMW := rateLimitReloader.Middleware()
	// 3. Request size limits (protects against DoS)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// 4. Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType)
	// 5. Request timeout (30 seconds default)
	r.Use(middleware.Timeout(30 * time.Second))
	// 6. Error handler (catches panics)
	r.Use(middleware.ErrorHandler(zapLogger))
	// 7. Audit logging (for security events)
	r.Use(middleware.Audit(zapLogger))
	// 8. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(zapLogger))
	// 9. Activity tracking (for authenticated requests)
	r.Use(middleware.ActivityTracking(activityRepo, zapLogger))

	zapLogger.Info("middleware_setup_complete")

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// OpenAPI spec (public)
	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authMW := middleware.Auth(db, verifier, zapLogger)
	familyMW := middleware.RequireFamily(zapLogger)

	// Auth routes
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()

	// Public auth routes with rate limiting (more restrictive for unauthenticated)
	loginRouter := authRouter.PathPrefix("/oidc").Subrouter()
	loginRouter.Use(rateLimitMW)
	loginRouter.HandleFunc("/login", authHandler.GetOIDCLogin).Methods("GET")
	loginRouter.HandleFunc("/token", authHandler.ExchangeToken).Methods("POST")

	// Protected auth routes
	protectedAuthRouter := authRouter.PathPrefix("").Subrouter()
	protectedAuthRouter.Use(authMW)
	protectedAuthRouter.Use(rateLimitMW)
	protectedAuthRouter.HandleFunc("/me", authHandler.GetMe).Methods("GET")

	// Family routes (authenticated; family selection is what they manage)
	familiesRouter := apiRouter.PathPrefix("/families").Subrouter()
	familiesRouter.Use(authMW)
	familiesRouter.Use(rateLimitMW)
	familyHandler.RegisterRoutes(familiesRouter)

	// Meal type catalog (authenticated, not family-scoped)
	mealTypesRouter := apiRouter.PathPrefix("/meal-types").Subrouter()
	mealTypesRouter.Use(authMW)
	mealTypesRouter.Use(rateLimitMW)
	mealTypeHandler.RegisterRoutes(mealTypesRouter)

	// Family-scoped routes
	mealsRouter := apiRouter.PathPrefix("/meals").Subrouter()
	mealsRouter.Use(authMW)
	mealsRouter.Use(familyMW)
	mealsRouter.Use(rateLimitMW)
	mealHandler.RegisterRoutes(mealsRouter)

	recipesRouter := apiRouter.PathPrefix("/recipes").Subrouter()
	recipesRouter.Use(authMW)
	recipesRouter.Use(familyMW)
	recipesRouter.Use(rateLimitMW)
	recipeHandler.RegisterRoutes(recipesRouter)

	dashboardRouter := apiRouter.PathPrefix("/dashboard").Subrouter()
	dashboardRouter.Use(authMW)
	dashboardRouter.Use(familyMW)
	dashboardRouter.Use(rateLimitMW)
	dashboardHandler.RegisterRoutes(dashboardRouter)

	suggestionsRouter := apiRouter.PathPrefix("/suggestions").Subrouter()
	suggestionsRouter.Use(authMW)
	suggestionsRouter.Use(familyMW)
	suggestionsRouter.Use(rateLimitMW)
	suggestionHandler.RegisterRoutes(suggestionsRouter)

	// Catch-all OPTIONS handler for preflight requests
	// The CORS middleware will handle setting headers before this is called
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// CORS and rate limit hot-reload loops
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	// Start DLQ garbage collector if the queue implementation supports it
	// Run every hour, retain messages for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(reloadCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Only expose minimal version info (sanitized for security)
	if _, err := w.Write([]byte(`{"version":"1.0.0","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`)); err != nil {
		// Nothing useful to do for a failed version write
		_ = err
	}
}

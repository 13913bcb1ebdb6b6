// @title Induction Portal API
// @version 1.0
// @description Learner inductions with gated chapter videos, per-chapter questions and admin authoring.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"induction-portal/internal/adapter"
	"induction-portal/internal/adapter/storage"
	"induction-portal/internal/cache"
	"induction-portal/internal/config"
	"induction-portal/internal/database"
	"induction-portal/internal/domain"
	"induction-portal/internal/handler"
	"induction-portal/internal/logger"
	"induction-portal/internal/metrics"
	"induction-portal/internal/middleware"
	"induction-portal/internal/repository"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	_ "induction-portal/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const rateLimitSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewSQLXDB(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err), zap.String("driver", cfg.DB.Driver))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB, database.Driver(cfg.DB.Driver)); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	appLogger.Info("Database ready", zap.String("driver", cfg.DB.Driver))

	repos := repository.NewRepositories(db)

	// Redis is optional: without it the catalogue and completion caches are skipped
	// and logout cannot revoke tokens before they expire.
	var cacheAdapter domain.Cache
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Connected to Redis", zap.String("address", cfg.Redis.Address))
	}

	var videoResolver domain.VideoURLResolver
	if cfg.Storage.Endpoint != "" {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			appLogger.Fatal("Failed to create object storage client", zap.Error(err))
		}
		videoResolver = storage.NewVideoResolver(minioClient, cfg.Storage.Bucket, cfg.Storage.PresignTTL)
		appLogger.Info("Uploaded videos served from object storage",
			zap.String("endpoint", cfg.Storage.Endpoint), zap.String("bucket", cfg.Storage.Bucket))
	}

	services, err := service.NewServices(service.Dependencies{
		Users:              repos.Users,
		Inductions:         repos.Inductions,
		Submissions:        repos.Submissions,
		Answers:            repos.Answers,
		Videos:             repos.Videos,
		Transactions:       repos.Transactions,
		Cache:              cacheAdapter,
		VideoResolver:      videoResolver,
		VideoCompletionTTL: cfg.Cache.VideoCompletionTTL,
		JWT:                cfg.JWT,
	})
	if err != nil {
		appLogger.Fatal("Failed to create services", zap.Error(err))
	}

	if cfg.Admin.Email != "" {
		if _, err := services.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			appLogger.Fatal("Failed to ensure admin account", zap.Error(err))
		}
	}

	metrics.Init()
	validator := validation.NewValidator()

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimitMax, cfg.Server.RateLimitWindow)
	go sweepLimiter(ctx, limiter)

	app.Use(middleware.RequestID())
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		MaxAge:       300,
	}))

	checks := map[string]handler.HealthCheck{"database": db.PingContext}
	if cacheAdapter != nil {
		checks["redis"] = cacheAdapter.Ping
	}
	app.Get("/health", handler.NewHealthHandler(checks).Health)
	app.Get("/metrics", metrics.Handler())
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api", limiter.Handler())
	handler.RegisterRoutes(api, handler.NewHandlers(services, validator), services.Auth, validator)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	appLogger.Info("Server exited gracefully")
}

// sweepLimiter drops idle per-IP limiters until ctx is cancelled.
func sweepLimiter(ctx context.Context, limiter *middleware.IPRateLimiter) {
	ticker := time.NewTicker(rateLimitSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Get().Debug("Rate limiter entries evicted", zap.Int("count", n))
			}
		}
	}
}

// Package main provides the main entry point for the LinkHub API server
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/LinkHub/app/handlers"
	"github.com/amirphl/LinkHub/app/middleware"
	"github.com/amirphl/LinkHub/app/router"
	"github.com/amirphl/LinkHub/app/services"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/config"
	"github.com/amirphl/LinkHub/logging"
	"github.com/amirphl/LinkHub/migrations"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title LinkHub API
// @version 1.0
// @description Link-in-bio service: profiles, ordered links, click tracking and analytics.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.Config
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logWriter := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Caller:     cfg.Logging.Caller,
	})

	log.Info().
		Str("environment", cfg.Deployment.Environment).
		Str("version", cfg.Deployment.Version).
		Msg("Starting LinkHub")

	app, err := initializeApplication(cfg, logWriter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-sigChan
	log.Info().Msg("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}

	// Stop background workers and release resources
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Info().Msg("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.RunMigrations {
		if err := migrations.Up(cfg.DSN()); err != nil {
			return nil, err
		}
	}

	gormLog := log.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		NowFunc:        utils.UTCNow,
		Logger: gormlogger.New(&gormLog, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.Config, accessLog io.Writer) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs,
			startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval),
			func() { _ = rc.Close() },
		)
	}

	analyticsLoc, err := utils.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics timezone: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		rc,
		cfg.Cache.RedisPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Info().Str("issuer", cfg.JWT.Issuer).Str("audience", cfg.JWT.Audience).Msg("Token service initialized")

	var oauthService services.OAuthService
	if cfg.OAuth.GoogleEnabled() {
		oauthService = services.NewGoogleOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	} else {
		log.Warn().Msg("Google login is disabled; GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required")
	}

	geoService, err := services.NewGeoService(cfg.Geo.DatabasePath)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() { _ = geoService.Close() })

	avatarStore, err := services.NewAvatarStore(cfg.Storage.AvatarDir, utils.AvatarSize, utils.MaxAvatarBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	pageViews := services.NewPageViewStore(rc, cfg.Cache.RedisPrefix)
	qrGenerator := services.NewQRCodeGenerator()
	uaParser := services.NewUserAgentParser()

	// Initialize flows
	authFlow := businessflow.NewAuthFlow(userRepo, auditRepo, tokenService, oauthService, cfg.Security.BcryptCost)
	linkFlow := businessflow.NewLinkFlow(linkRepo, clickRepo, auditRepo, db)
	clickFlow := businessflow.NewClickFlow(linkRepo, clickRepo, uaParser, geoService, db)
	analyticsFlow := businessflow.NewAnalyticsFlow(linkRepo, clickRepo, pageViews, analyticsLoc)
	publicFlow := businessflow.NewPublicProfileFlow(userRepo, linkRepo, pageViews, qrGenerator, cfg.Deployment.PublicBaseURL)
	profileFlow := businessflow.NewProfileFlow(userRepo, linkRepo, clickRepo, auditRepo, avatarStore, cfg.Deployment.PublicBaseURL)

	// Initialize handlers
	timeout := cfg.Server.RequestTimeout
	healthChecks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rc != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	}

	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Auth:      handlers.NewAuthHandler(authFlow, cfg.OAuth.FrontendRedirectURL, cfg.Security.CookieSecure, timeout),
		Links:     handlers.NewLinkHandler(linkFlow, timeout),
		Clicks:    handlers.NewClickHandler(clickFlow, timeout),
		Analytics: handlers.NewAnalyticsHandler(analyticsFlow, publicFlow, timeout),
		Profile:   handlers.NewProfileHandler(profileFlow, timeout),
		Public:    handlers.NewPublicHandler(publicFlow, timeout),
		Health:    handlers.NewHealthHandler(cfg.Deployment.Version, healthChecks),
	}, middleware.NewAuthMiddleware(tokenService), accessLog)

	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}

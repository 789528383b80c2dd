package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	itemrepo "github.com/Ramsey-B/clover/internal/repositories/item"
	usagerepo "github.com/Ramsey-B/clover/internal/repositories/usage"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/extraction"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/quota"
	"github.com/Ramsey-B/clover/pkg/redis"
	extractionroute "github.com/Ramsey-B/clover/pkg/routes/extraction"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	itemroute "github.com/Ramsey-B/clover/pkg/routes/item"
	matchroute "github.com/Ramsey-B/clover/pkg/routes/match"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger := newZapLogger(cfg)
	defer func() { _ = zapLogger.Sync() }()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdown := setupTracing(ctx, cfg, logger)
		defer shutdown(ctx)
	}

	db := connectDatabase(cfg, logger)
	defer db.Close()
	dbInstance := database.NewDatabaseInstance(db, logger)

	runMigrations(cfg, db, logger)

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	itemRepository := itemrepo.NewRepository(dbInstance, logger)
	usageRepository := usagerepo.NewRepository(dbInstance, logger)

	quotaStore := redis.NewQuotaStore(redisClient, cfg.RedisKeyPrefix)
	guard := quota.NewGuard(quotaStore, usageRepository, models.RateLimitPolicy{
		Enabled:          cfg.RateLimitEnabled,
		PerUserPerMinute: cfg.RateLimitPerUserMinute,
		PerUserPerHour:   cfg.RateLimitPerUserHour,
		SystemEnabled:    cfg.RateLimitSystemEnabled,
		SystemPerMinute:  cfg.RateLimitSystemMinute,
		SystemPerHour:    cfg.RateLimitSystemHour,
	}, logger)

	var extractor extraction.Extractor
	if cfg.ExtractorEndpoint != "" {
		extractor = extraction.NewHTTPExtractor(extraction.Config{
			Endpoint: cfg.ExtractorEndpoint,
			APIKey:   cfg.ExtractorAPIKey,
			Timeout:  cfg.ExtractorTimeout,
		}, logger)
	}

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	scorer := matching.NewScorer(matching.ScorerConfig{
		TextWeight:            cfg.ScoreTextWeight,
		CategoryWeight:        cfg.ScoreCategoryWeight,
		LocationWeight:        cfg.ScoreLocationWeight,
		DateWeight:            cfg.ScoreDateWeight,
		DecayDays:             cfg.ScoreDecayDays,
		ZoneCredit:            cfg.ScoreZoneCredit,
		UnknownCategoryCredit: cfg.ScoreUnknownCategoryCredit,
	})
	ranker := matching.NewRanker(scorer, matching.RankerConfig{
		MinScore:      cfg.MatchMinScore,
		MaxCandidates: cfg.MatchMaxCandidates,
	})
	matchingService := matching.NewService(logger, itemRepository, extractor, guard, ranker, emitter)

	registerDependencies(logger, itemRepository, usageRepository, guard, extractor, emitter, matchingService)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	api := e.Group("/api/v1")
	if cfg.AuthEnabled {
		api.Use(middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID))
	}
	itemroute.Register(api.Group("/items"))
	matchroute.Register(api.Group("/matches"))
	extractionroute.Register(api.Group("/extractions"))

	checker := health.NewChecker(dbInstance, redisClient, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down cleanly")
	}
}

func newZapLogger(cfg *config.Config) *zap.Logger {
	if cfg.PrettyLogs {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to create logger: %v", err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func connectDatabase(cfg *config.Config, logger ectologger.Logger) *sqlx.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	logger.Infof("Connected to database %s", cfg.DatabaseName)
	return db
}

func runMigrations(cfg *config.Config, db *sqlx.DB, logger ectologger.Logger) {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		log.Fatalf("failed to create migration driver: %v", err)
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
	})
	if err := migrationService.Migrate(cfg.DatabaseName, driver); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}
}

func setupTracing(ctx context.Context, cfg *config.Config, logger ectologger.Logger) func(context.Context) {
	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: cfg.TracingInsecure,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to create trace exporter: %v", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down trace provider")
		}
	}
}

func registerDependencies(
	logger ectologger.Logger,
	itemRepository *itemrepo.Repository,
	usageRepository *usagerepo.Repository,
	guard *quota.Guard,
	extractor extraction.Extractor,
	emitter *events.Emitter,
	matchingService *matching.Service,
) {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		log.Fatalf("failed to create DI container: %v", err)
	}

	mustRegister(ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(ectoinject.RegisterInstance[*itemrepo.Repository](container, itemRepository))
	mustRegister(ectoinject.RegisterInstance[*usagerepo.Repository](container, usageRepository))
	mustRegister(ectoinject.RegisterInstance[*quota.Guard](container, guard))
	mustRegister(ectoinject.RegisterInstance[*matching.Service](container, matchingService))
	if extractor != nil {
		mustRegister(ectoinject.RegisterInstance[extraction.Extractor](container, extractor))
	}
	if emitter != nil {
		mustRegister(ectoinject.RegisterInstance[*events.Emitter](container, emitter))
	}
}

func mustRegister(err error) {
	if err != nil {
		log.Fatalf("failed to register dependency: %v", err)
	}
}

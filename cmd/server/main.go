package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	custrepo "github.com/Ramsey-B/clover/internal/repositories/customer"
	runrepo "github.com/Ramsey-B/clover/internal/repositories/enrichmentrun"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/enrichment"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/export"
	"github.com/Ramsey-B/clover/pkg/geocode"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/legacy"
	"github.com/Ramsey-B/clover/pkg/middleware"
	cloverredis "github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/sync"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger := newLogger(cfg)
	logger.Infof("Starting %s", cfg.AppName)

	if cfg.TracingEnabled {
		exporter, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTELExporterEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			logger.WithError(err).Error("Failed to create trace exporter")
			os.Exit(1)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", cfg.AppName),
			)),
		)
		otel.SetTracerProvider(tp)
		tracing.SetTracer(otel.Tracer(cfg.AppName))
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	// Database
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	// Migrations
	driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		logger.WithError(err).Error("Failed to create migration driver")
		os.Exit(1)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	// Redis (geocode response cache), optional
	var redisClient *cloverredis.Client
	if cfg.RedisHost != "" {
		redisClient, err = cloverredis.NewClient(cloverredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis")
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	// Kafka producer (lifecycle events), optional
	var publisher events.Publisher
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
		publisher = producer
	}
	emitter := events.NewEmitter(publisher, logger)

	// Domain wiring
	legacyClient := legacy.NewClient(legacy.Config{
		BaseURL: cfg.LegacyBaseURL,
		APIKey:  cfg.LegacyAPIKey,
		Timeout: cfg.LegacyTimeoutSeconds,
	}, logger)

	var geocoder geocode.Geocoder = geocode.NewClient(cfg.GeocoderBaseURL, logger)
	if redisClient != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, redisClient, cfg.GeocoderCacheTTL, logger)
	}

	customers := custrepo.NewRepository(db, logger)
	runs := runrepo.NewRepository(db, logger)

	orchestrator := sync.NewOrchestrator(legacyClient, customers, emitter, sync.Config{
		BatchSize:   cfg.SyncBatchSize,
		MaxBatches:  cfg.SyncMaxBatches,
		HomeCountry: cfg.SyncHomeCountry,
	}, logger)
	worker := enrichment.NewWorker(customers, runs, geocoder, emitter, logger)
	exporter := export.NewExporter(legacyClient, customers, logger)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	handlers.NewSyncHandler(orchestrator).RegisterRoutes(api)
	handlers.NewEnrichmentHandler(worker).RegisterRoutes(api)
	handlers.NewMatchHandler(customers).RegisterRoutes(api)
	handlers.NewExportHandler(exporter).RegisterRoutes(api)

	health := handlers.NewHealthChecker(db, redisPinger(redisClient), version)
	health.RegisterRoutes(e)

	// Schedules
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
		if _, err := orchestrator.Run(context.Background()); err != nil {
			logger.WithError(err).Error("Scheduled sync failed")
		}
	}); err != nil {
		logger.WithError(err).Error("Invalid sync schedule")
		os.Exit(1)
	}
	if _, err := scheduler.AddFunc(cfg.EnrichmentSchedule, func() {
		if _, err := worker.RunOnce(context.Background()); err != nil {
			logger.WithError(err).Error("Scheduled enrichment batch failed")
		}
	}); err != nil {
		logger.WithError(err).Error("Invalid enrichment schedule")
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Infof("Listening on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped unexpectedly")
			os.Exit(1)
		}
	}()
	health.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	health.SetReady(false)
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// redisPinger adapts the Redis client to the health checker's probe shape.
// A nil client yields a nil probe so the check is skipped.
func redisPinger(client *cloverredis.Client) interface{ Ping() error } {
	if client == nil {
		return nil
	}
	return pinger{client: client}
}

type pinger struct {
	client *cloverredis.Client
}

func (p pinger) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.client.Ping(ctx)
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

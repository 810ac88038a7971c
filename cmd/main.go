package main

import (
	"context"
	"net/http"

	"measurement-service/internal/handler"
	"measurement-service/internal/measurement"
	mid "measurement-service/internal/middleware"
	"measurement-service/internal/repository"
	"measurement-service/internal/seed"
	"measurement-service/internal/tenant"
	"measurement-service/pkg/config"
	"measurement-service/pkg/database"
	"measurement-service/pkg/jwtutil"
	"measurement-service/pkg/logger"
	"measurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "measurement-service"

type store interface {
	measurement.Repository
	tenant.Store
}

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogFields()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig.Metrics.Prefix)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	var fixture *seed.Fixture
	if appConfig.Seed.File != "" {
		fixture, err = seed.Load(appConfig.Seed.File)
		if err != nil {
			log.Fatal("Failed to load seed file", zap.String("file", appConfig.Seed.File), zap.Error(err))
		}
	}

	var (
		st     store
		pinger handler.Pinger
	)
	switch appConfig.DB.Driver {
	case config.DriverMemory:
		memory := repository.NewMemoryStore()
		if fixture != nil {
			seed.ApplyMemory(memory, fixture)
		}
		st = memory
		log.Warn("Using in-memory store, data is lost on restart")
	default:
		db, err := database.InitDB(&appConfig.DB)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if fixture != nil {
			if err := seed.ApplyGorm(context.Background(), db, fixture); err != nil {
				log.Fatal("Failed to apply seed file", zap.Error(err))
			}
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("Failed to get database object", zap.Error(err))
		}
		st = repository.NewGormStore(db)
		pinger = sqlDB
		log.Info("Database connection established")
	}

	if fixture != nil {
		tenants, clients, addresses, products := fixture.Counts()
		log.Info("Seed data applied",
			zap.Int("tenants", tenants),
			zap.Int("clients", clients),
			zap.Int("addresses", addresses),
			zap.Int("products", products))
	}

	service := measurement.NewService(st, tenant.NewGuard(st),
		measurement.WithLocation(appConfig.Server.Location()))

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      appConfig.JWT.SigningKey,
		ExpirationHours: appConfig.JWT.ExpirationHours,
	})

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.NewHealthHandler(pinger).HealthCheck)

	// Measurement API routes, scoped to the tenant of the token
	measurementAPI := e.Group("/api/measurements", mid.AuthMiddleware(jwt))
	handler.NewMeasurementHandler(service).Register(measurementAPI)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}

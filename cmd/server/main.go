package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/internal/config"
	"github.com/diewo77/go-dealership/internal/db"
	"github.com/diewo77/go-dealership/internal/jobs"
	"github.com/diewo77/go-dealership/internal/metrics"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/policy"
	"github.com/diewo77/go-dealership/view"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := setupLogger(cfg.App)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	dbConn, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg.Database, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations || cfg.Database.Driver == "sqlite" {
		if err := migrate(cfg.Database, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed")
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	secure := !cfg.App.Dev()
	authn := auth.NewAuthenticator(
		auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL),
		auth.NewCookieCarrier(secure, cfg.Auth.TokenTTL),
		middleware.Flash,
	)
	view.SetDevMode(cfg.App.Dev())

	routerCfg := policy.NewRouterConfig(dbConn, authn, m, log)
	appHandler := NewApp(dbConn, routerCfg, middleware.NewCookieStore(cfg.Auth.SessionSecret, secure), m, registry, log)

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Add(cfg.App.StatsSchedule, jobs.NewStatsJob(routerCfg.Inventory, routerCfg.Classifications, m, log), true); err != nil {
		log.WithError(err).Fatal("invalid stats schedule")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "env": cfg.App.Env}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
}

// migrate applies the versioned SQL migrations on postgres and the model
// auto-migration on sqlite.
func migrate(cfg config.DatabaseConfig, dbConn *gorm.DB) error {
	if cfg.Driver == "postgres" {
		return db.RunSQLMigrations(cfg.URL())
	}
	return db.Migrate(dbConn)
}

func setupLogger(cfg config.AppConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/Job-Application-Portal/internal/cleanup"
	"github.com/justsurfingit/Job-Application-Portal/internal/config"
	"github.com/justsurfingit/Job-Application-Portal/internal/database"
	"github.com/justsurfingit/Job-Application-Portal/internal/handlers"
	"github.com/justsurfingit/Job-Application-Portal/internal/metrics"
	"github.com/justsurfingit/Job-Application-Portal/internal/middleware"
	"github.com/justsurfingit/Job-Application-Portal/internal/repository"
	"github.com/justsurfingit/Job-Application-Portal/internal/services"
	"github.com/justsurfingit/Job-Application-Portal/internal/storage"
)

func main() {
	log := logrus.New()

	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// 2. Database connection and schema
	db, err := database.Connect(database.Options{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle")
	}
	defer sqlDB.Close()

	if err := database.SyncSchema(context.Background(), db, database.ApplicationsTable, log); err != nil {
		log.WithError(err).Fatal("schema sync failed")
	}

	// 3. Storage and services
	store, err := storage.NewAttachmentStore(cfg.UploadDir, cfg.MaxUploadBytes, log)
	if err != nil {
		log.WithError(err).Fatal("attachment store")
	}
	queue := cleanup.NewQueue(store, log, 128)
	defer queue.Close()

	repo := repository.NewApplicationRepository(db)
	appService := services.NewApplicationService(repo, store, queue, log)
	appHandler := handlers.NewApplicationHandler(appService, log, cfg.MaxUploadBytes)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanup(5*time.Minute, stopCleanup)

	// 4. Router and CORS
	if !cfg.LogJSON {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())
	r.MaxMultipartMemory = 2 * cfg.MaxUploadBytes

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	r.Use(cors.New(corsConfig))

	// 5. Routes
	appHandler.Routes(r.Group("/api"), limiter.Handler())
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.Static("/uploads", cfg.UploadDir)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	if err := serve(server, quit, cfg.ShutdownTimeout, log); err != nil {
		log.WithError(err).Error("server stopped")
	}
}

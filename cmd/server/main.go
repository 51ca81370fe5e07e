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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"alcyxob/rehab-course/internal/api"
	"alcyxob/rehab-course/internal/background"
	"alcyxob/rehab-course/internal/cache"
	"alcyxob/rehab-course/internal/config"
	"alcyxob/rehab-course/internal/events"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/repository/mongo"
	"alcyxob/rehab-course/internal/service"
	"alcyxob/rehab-course/internal/storage"
)

// @title Rehab Course API
// @version 1.0
// @description Generates rehabilitation exercise courses and adapts them to each user's history.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting rehab course server", "address", cfg.Server.Address, "mode", cfg.Server.Mode)

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal("could not connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, time.Minute)
	if err := mongo.EnsureIndexes(indexCtx, appDB); err != nil {
		// Unique indexes back duplicate detection; serving without them is unsafe.
		cancelIndexes()
		log.Fatal("could not ensure indexes", "error", err)
	}
	cancelIndexes()

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, log)
	if err != nil {
		log.Fatal("failed to initialize S3 storage", "error", err)
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	catalogRepo := mongo.NewMongoCatalogRepository(appDB)
	logRepo := mongo.NewMongoCompletionLogRepository(appDB)
	profileRepo := mongo.NewMongoPainProfileRepository(appDB)
	courseRepo := mongo.NewMongoCourseRepository(appDB)

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("could not connect to Redis", "error", err)
		}
		defer rdb.Close()
		catalogRepo = cache.NewCatalogCache(catalogRepo, rdb, cfg.Redis.CatalogTTL, log, metrics)
		log.Info("catalog cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CatalogTTL)
	}

	// --- Background work and events ---
	queue := background.NewQueue(background.Options{
		Workers: cfg.Background.Workers,
		Size:    cfg.Background.QueueSize,
	}, log, metrics)
	go func() {
		for taskErr := range queue.Errors() {
			log.Warn("background task failed", "task", taskErr.Name, "error", taskErr.Err)
		}
	}()

	var publisher service.CoursePublisher
	var producer *events.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewKafkaProducer(cfg.Kafka, log)
		publisher = events.NewCoursePublisher(producer, cfg.Kafka.CourseTopic, log, metrics)
		log.Info("course events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.CourseTopic)
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal("could not create admin account", "error", err)
	}
	analysisService := service.NewAnalysisService(logRepo, profileRepo, courseRepo, catalogRepo, service.AnalysisSettings{
		PreferenceLookback: time.Duration(cfg.Analysis.PreferenceLookbackDays) * 24 * time.Hour,
		IssueLookback:      time.Duration(cfg.Analysis.IssueLookbackDays) * 24 * time.Hour,
		Location:           cfg.Analysis.Location(),
	}, log, metrics)
	catalogService := service.NewCatalogService(templateRepo, catalogRepo, fileStorage, queue, cfg.S3.MediaURLExpiry, log)
	courseService := service.NewCourseService(catalogRepo, courseRepo, analysisService, fileStorage, publisher, queue, cfg.S3.MediaURLExpiry, log, metrics)

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:     authService,
		Catalog:  catalogService,
		Course:   courseService,
		Analysis: analysisService,
	}, metrics, registry, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	// Drain detached work after HTTP stops submitting it.
	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Error("background queue did not drain", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("failed to close kafka producer", "error", err)
		}
	}

	log.Info("server exiting")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/pregnancy-risk/platform/pkg/common/config"
	"github.com/pregnancy-risk/platform/pkg/common/database"
	"github.com/pregnancy-risk/platform/pkg/common/kafka"
	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/features"
	"github.com/pregnancy-risk/platform/pkg/gateway/middleware"
	"github.com/pregnancy-risk/platform/pkg/intake"
	"github.com/pregnancy-risk/platform/pkg/observability/metrics"
	"github.com/pregnancy-risk/platform/pkg/serving"
	"github.com/pregnancy-risk/platform/pkg/serving/cache"
)

func main() {
	logger.Init()
	cfg := config.Load()
	recorder := metrics.New()

	opts := []serving.Option{
		serving.WithMetrics(recorder),
		serving.WithCache(predictionCache(cfg)),
	}
	if cfg.ClinicalValidation {
		opts = append(opts, serving.WithClinicalValidation(intake.NewValidator()))
	}

	if cfg.AlertsEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AlertTopic)
		defer producer.Close()
		opts = append(opts, serving.WithAlerts(producer))
	}

	var archive *intake.Repository
	if cfg.IntakeArchiveEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		defer database.ClosePostgres()

		archive = intake.NewRepository(db)
		if err := archive.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate intake archive")
		}
		opts = append(opts, serving.WithArchive(archive))
	}

	defer database.CloseRedis()

	service := serving.NewService(opts...)

	// Both classifiers must be loaded before the listener opens.
	paths := map[string]string{
		features.VariantEctopic: cfg.EctopicModelPath,
		features.VariantMolar:   cfg.MolarModelPath,
	}
	for _, variant := range features.Variants() {
		p, info, err := serving.LoadPredictor(variant, paths[variant])
		if err != nil {
			logger.Log.WithError(err).WithField("variant", variant).Fatal("Failed to load model")
		}
		if err := service.Register(p, info); err != nil {
			logger.Log.WithError(err).WithField("variant", variant).Fatal("Failed to register model")
		}
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	serving.NewHTTPHandler(service, cfg.MaxRequestBody).Register(router)
	if archive != nil {
		intake.NewHTTPHandler(archive).Register(router)
	}
	router.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      middleware.CORS(cfg.CORSAllowedOrigins)(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Risk Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Risk Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Risk Service stopped")
}

func predictionCache(cfg *config.Config) cache.Cache {
	switch cfg.PredictionCache {
	case cache.ModeRedis:
		return cache.NewRedis(database.GetRedis(cfg), "risk:prediction", cfg.PredictionCacheTTL)
	case cache.ModeNone:
		return cache.Noop{}
	case cache.ModeMemory:
		return cache.NewMemory(cfg.PredictionCacheSize, cfg.PredictionCacheTTL)
	default:
		logger.Log.WithField("mode", cfg.PredictionCache).Warn("unknown prediction cache mode, using memory")
		return cache.NewMemory(cfg.PredictionCacheSize, cfg.PredictionCacheTTL)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"inspection-hand/config"
	"inspection-hand/models"
	"inspection-hand/providers"
	"inspection-hand/providers/socrata"
	"inspection-hand/services"
	"inspection-hand/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	recordsFetchedCounter prometheus.Counter
	rowsInsertedCounter   *prometheus.CounterVec
)

func init() {
	recordsFetchedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspection_records_fetched_total",
			Help: "Total number of raw inspection records fetched from the source dataset.",
		},
	)
	rowsInsertedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspection_rows_inserted_total",
			Help: "Total number of rows inserted per target table.",
		},
		[]string{"table"},
	)
	prometheus.MustRegister(recordsFetchedCounter, rowsInsertedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to inspections database", zap.Error(err))
	}
	logging.Info("Successfully connected to inspections database.")

	// Setup Provider
	var provider providers.Provider
	switch cfg.EnabledProvider {
	case "socrata":
		provider = socrata.NewFetcher(cfg, logging)
	default:
		logging.Fatal("Unknown provider in config", zap.String("provider_name", cfg.EnabledProvider))
	}
	logging.Info("Active provider loaded", zap.String("provider", provider.Name()))

	// Setup Services
	pipeline := services.NewPipelineService(cfg, db, nil, logging, provider)
	if cfg.SnapshotsEnabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		pipeline.S3Client = s3Client
		logging.Info("Raw batch snapshots enabled", zap.String("bucket", cfg.SnapshotS3Bucket))
	}

	// Schema anlegen (deklarierte PK/FK, idempotent)
	logging.Info("Running database auto-migration...")
	if err := pipeline.Loader.EnsureSchema(); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	runPipeline := func(ctx context.Context) (*services.RunResult, error) {
		result, err := pipeline.Run(ctx)
		if err != nil {
			return nil, err
		}
		recordsFetchedCounter.Add(float64(result.RecordsFetched))
		rowsInsertedCounter.WithLabelValues("restaurants").Add(float64(result.Stats.Restaurants))
		rowsInsertedCounter.WithLabelValues("violation_codes").Add(float64(result.Stats.Codes))
		rowsInsertedCounter.WithLabelValues("inspection_violations").Add(float64(result.Stats.Links))
		return result, nil
	}

	// Einmaliger Lauf bis zum Ende, wenn kein Cron-Zeitplan gesetzt ist.
	if cfg.CronSchedule == "" {
		if _, err := runPipeline(context.Background()); err != nil {
			logging.Fatal("Pipeline run failed", zap.Error(err))
		}
		return
	}

	// Residenter Modus: Cron + kleiner Ops-Server (kein Query-Layer über die Daten).
	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled pipeline job...")
		if _, err := runPipeline(context.Background()); err != nil {
			logging.Error("Cron job failed", zap.Error(err))
		}
	})
	if err != nil {
		// Ungültiger Zeitplan würde sonst einen residenten Prozess ohne Läufe hinterlassen.
		logging.Fatal("Invalid CRON_SCHEDULE", zap.String("cron_schedule", cfg.CronSchedule), zap.Error(err))
	}
	cronScheduler.Start()

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "inspection-hand"})
	})

	// Manueller Trigger, asynchron wie der Cron-Job.
	router.POST("/run", func(c *gin.Context) {
		go func() {
			if _, err := runPipeline(context.Background()); err != nil {
				logging.Error("Async pipeline run failed", zap.Error(err))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Pipeline run triggered."})
	})

	// Lauf-Historie (Audit, keine Inspektionsdaten).
	router.GET("/runs", func(c *gin.Context) {
		var runs []models.FetchRun
		if err := db.Order("created_at desc").Limit(50).Find(&runs).Error; err != nil {
			logging.Error("Database query for fetch runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("cron_schedule", cfg.CronSchedule))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

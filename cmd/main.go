package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deck-analysis-service/internal/ai"
	"deck-analysis-service/internal/config"
	"deck-analysis-service/internal/logger"
	"deck-analysis-service/internal/nlp"
	"deck-analysis-service/internal/telemetry"
	"deck-analysis-service/middleware"
	"deck-analysis-service/routes"
	"deck-analysis-service/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("deck-analysis-service")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// The language model is mandatory: segmentation and tagging cannot run
	// without it, so a load failure aborts startup.
	model, err := nlp.LoadModel(cfg.LexiconDir, cfg.InferenceWorkers)
	if err != nil {
		log.Fatal("Failed to load language model:", err)
	}

	// The summarizer is optional: without an API key the pipeline degrades
	// to empty summaries instead of refusing to start.
	var geminiClient *ai.GeminiClient
	if cfg.SummarizerEnabled() {
		geminiClient, err = ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Summarizer unavailable, continuing without it", "error", err)
			geminiClient = nil
		} else {
			defer geminiClient.Close()
			logger.Info("Summarizer enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("Summarizer not configured, summaries will be empty")
	}

	store := services.NewMongoResultStore(mongoClient, cfg.DBName)
	summarizer := services.NewSummarizer(geminiClient, cfg.SummaryMinWords, cfg.SummaryMaxWords, cfg.SummaryInputTokenLimit)
	pipeline := services.NewAnalysisPipeline(cfg, model, summarizer, store, metrics)

	// Queue client for the async path; nil disables the async endpoint.
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("deck-analysis-service"))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAnalyzeRoutes(router, cfg, pipeline, store, queueClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

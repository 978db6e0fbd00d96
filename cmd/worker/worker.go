package main

import (
	"context"
	"log"
	"time"

	"deck-analysis-service/internal/ai"
	"deck-analysis-service/internal/config"
	"deck-analysis-service/internal/logger"
	"deck-analysis-service/internal/nlp"
	"deck-analysis-service/internal/queue"
	"deck-analysis-service/services"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

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

	// Fail fast if Redis is unreachable; the worker is useless without its
	// queue backend.
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatal("Failed to ping Redis:", err)
	}
	pingCancel()
	rdb.Close()

	// The worker runs the same mandatory-model policy as the server.
	model, err := nlp.LoadModel(cfg.LexiconDir, cfg.InferenceWorkers)
	if err != nil {
		log.Fatal("Failed to load language model:", err)
	}

	var geminiClient *ai.GeminiClient
	if cfg.SummarizerEnabled() {
		geminiClient, err = ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Summarizer unavailable, continuing without it", "error", err)
			geminiClient = nil
		} else {
			defer geminiClient.Close()
		}
	}

	store := services.NewMongoResultStore(mongoClient, cfg.DBName)
	summarizer := services.NewSummarizer(geminiClient, cfg.SummaryMinWords, cfg.SummaryMaxWords, cfg.SummaryInputTokenLimit)
	pipeline := services.NewAnalysisPipeline(cfg, model, summarizer, store, nil)

	// Retention sweep: purge old analyses once a day when configured.
	if cfg.RetentionDays > 0 {
		scheduler := gocron.NewScheduler(time.UTC)
		_, err := scheduler.Every(1).Day().At("03:00").Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
			deleted, err := store.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				logger.Error("Retention sweep failed", "error", err)
				return
			}
			logger.Info("Retention sweep complete", "deleted", deleted, "cutoff", cutoff)
		})
		if err != nil {
			log.Fatal("Failed to schedule retention sweep:", err)
		}
		scheduler.StartAsync()
		logger.Info("Retention sweep scheduled", "retention_days", cfg.RetentionDays)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.InferenceWorkers,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(pipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskAnalyzeDocument, processor.ProcessAnalyze)

	logger.Info("Starting analysis worker",
		"concurrency", cfg.InferenceWorkers,
		"redis", redisOpt.Addr,
	)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

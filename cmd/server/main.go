package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"lexivox/internal/config"
	"lexivox/internal/deepseek"
	"lexivox/internal/extract"
	"lexivox/internal/murf"
	"lexivox/internal/queue"
	"lexivox/internal/server"
	"lexivox/internal/speech"
	"lexivox/internal/storage"
	"lexivox/pkg/cache"
	"lexivox/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	resetDB := flag.Bool("reset-db", false, "Reset database by dropping all tables and re-running migrations")
	flag.Parse()

	debug := true
	if err := logger.Init(debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting lexivox API server")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
		return
	}

	if *resetDB {
		logger.Info("Resetting database...")
		if err := storage.ResetMigrations(cfg.Postgres.DSN); err != nil {
			logger.Fatal("Failed to reset database", zap.Error(err))
			return
		}
		logger.Info("Database reset completed successfully")
		return
	}

	db, err := storage.NewPostgresStorage(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
		return
	}
	defer db.Close()

	logger.Info("Database connection established")

	s3Storage, err := storage.NewS3Storage(
		cfg.S3.Endpoint,
		cfg.S3.Region,
		cfg.S3.AccessKey,
		cfg.S3.SecretKey,
		cfg.S3.Bucket,
	)
	if err != nil {
		logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		return
	}

	logger.Info("S3 storage initialized")

	redisCache, err := cache.NewRedisCache(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		24*time.Hour,
	)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
		return
	}
	defer redisCache.Close()

	logger.Info("Redis cache connection established")

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		return
	}
	defer rabbitMQ.Close()

	logger.Info("RabbitMQ connection established")

	llm := deepseek.NewClient(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model)
	orchestrator := extract.NewOrchestrator(extract.NewEnricher(llm))

	tts := murf.NewClient(cfg.Murf.APIKey)
	speechSvc := speech.NewService(
		db,
		s3Storage,
		tts,
		speech.NewVoicePicker(cfg.Murf.VoiceID),
		speech.Defaults{
			VoiceID: cfg.Murf.VoiceID,
			Rate:    cfg.Murf.Rate,
			Pitch:   cfg.Murf.Pitch,
		},
	)

	handler := server.NewHandler(orchestrator, speechSvc, db, s3Storage, rabbitMQ, redisCache)
	srv := server.New(cfg.HTTP.Addr, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}

	logger.Info("API server shutdown complete")
}

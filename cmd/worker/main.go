package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lexivox/internal/config"
	"lexivox/internal/deepseek"
	"lexivox/internal/extract"
	"lexivox/internal/murf"
	"lexivox/internal/ocrspace"
	"lexivox/internal/queue"
	"lexivox/internal/speech"
	"lexivox/internal/storage"
	"lexivox/internal/worker"
	"lexivox/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	debug := true
	if err := logger.Init(debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting lexivox worker service")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
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

	ocrClient := ocrspace.NewClient(cfg.OCRSpace.APIKey, cfg.OCRSpace.Language)

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

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		return
	}
	defer rabbitMQ.Close()

	logger.Info("RabbitMQ connection established")

	processor := worker.NewProcessor(db, s3Storage, ocrClient, orchestrator, speechSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting to consume messages from queue")
		if err := rabbitMQ.Consume(queue.QueueNameDictation, processor.ProcessTask); err != nil {
			logger.Error("Failed to consume messages", zap.Error(err))
			cancel()
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Worker service shutdown complete")
}

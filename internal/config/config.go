package config

import (
	"lexivox/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	} `yaml:"http"`

	OCRSpace struct {
		APIKey   string `yaml:"api_key" env:"OCR_SPACE_API_KEY"`
		Language string `yaml:"language" env:"OCR_LANGUAGE" env-default:"eng"`
	} `yaml:"ocrspace"`

	DeepSeek struct {
		APIKey string `yaml:"api_key" env:"DEEPSEEK_API_KEY"`
		Model  string `yaml:"model" env:"DEEPSEEK_MODEL" env-default:"deepseek-chat"`
	} `yaml:"deepseek"`

	Murf struct {
		APIKey  string `yaml:"api_key" env:"MURF_AI_API_KEY"`
		VoiceID string `yaml:"voice_id" env:"MURF_VOICE_ID" env-default:"en-US-natalie"`
		Rate    int    `yaml:"rate" env:"MURF_RATE" env-default:"-15"`
		Pitch   int    `yaml:"pitch" env:"MURF_PITCH" env-default:"-5"`
	} `yaml:"murf"`

	RabbitMQ struct {
		URL string `yaml:"url" env:"RABBITMQ_URL"`
	} `yaml:"rabbitmq"`

	Postgres struct {
		DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
	} `yaml:"postgres"`

	S3 struct {
		Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
		Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	} `yaml:"s3"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`
}

func LoadConfig() (*Config, error) {
	// Load .env file
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig("configs/config.yaml", &cfg); err != nil {
		return nil, err
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return nil, err
	}

	logger.Info("Config loaded successfully")
	return &cfg, nil
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int

	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int

	PdftotextPath   string
	MaxUploadBytes  int64
	PipelineTimeout time.Duration

	IngestWorkers     int
	StuckTTL          time.Duration
	ReconcileInterval time.Duration

	Port    string
	LogMode string
}

// LoadConfig loads the environment variables and returns config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "courseloom-materials"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),

		ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 100),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 100),

		PdftotextPath:   getEnv("PDFTOTEXT_PATH", "pdftotext"),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
		PipelineTimeout: getEnvDuration("PIPELINE_TIMEOUT", 5*time.Minute),

		IngestWorkers:     getEnvInt("INGEST_WORKERS", 2),
		StuckTTL:          getEnvDuration("STUCK_TTL", 30*time.Minute),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),

		Port:    getEnv("PORT", "8080"),
		LogMode: getEnv("LOG_MODE", "dev"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		log.Fatalf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

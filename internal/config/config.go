package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Ai        AIConfig
	Assistant AssistantConfig
	Alerts    AlertConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	Provider string // "ollama" for now
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// AssistantConfig holds the tunables of the conversational core.
type AssistantConfig struct {
	RateLimitWindow   time.Duration
	RateLimitMax      int
	HistoryReplaySize int
	MaxMessageLength  int
	SessionCacheTTL   time.Duration
	ResponseCacheTTL  time.Duration
	SessionStaleAfter time.Duration
	ReaperInterval    time.Duration
	MaxContextEntries int
	MaxPromptHistory  int
}

type AlertConfig struct {
	Recipient            string
	ErrorRateThreshold   float64 // errors per processed message, 0..1
	LatencyThresholdMs   int
	SatisfactionMinimum  float64
	EscalationRateLimit  float64
	EvaluationWindowSize int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "MarketAssist"),
		},
		Ai: AIConfig{
			Provider: getEnv("LLM_PROVIDER", "ollama"),
			BaseURL:  getEnv("LLM_BASE_URL", "http://localhost:11434"),
			Model:    getEnv("LLM_MODEL", "llama3"),
			APIKey:   getEnv("LLM_API_KEY", ""),
			Timeout:  getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Assistant: AssistantConfig{
			RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			RateLimitMax:      getEnvAsInt("RATE_LIMIT_MAX", 10),
			HistoryReplaySize: getEnvAsInt("HISTORY_REPLAY_SIZE", 50),
			MaxMessageLength:  getEnvAsInt("MAX_MESSAGE_LENGTH", 2000),
			SessionCacheTTL:   getEnvAsDuration("SESSION_CACHE_TTL", 5*time.Minute),
			ResponseCacheTTL:  getEnvAsDuration("RESPONSE_CACHE_TTL", time.Hour),
			SessionStaleAfter: getEnvAsDuration("SESSION_STALE_AFTER", 24*time.Hour),
			ReaperInterval:    getEnvAsDuration("SESSION_REAPER_INTERVAL", time.Hour),
			MaxContextEntries: getEnvAsInt("MAX_CONTEXT_ENTRIES", 32),
			MaxPromptHistory:  getEnvAsInt("MAX_PROMPT_HISTORY", 10),
		},
		Alerts: AlertConfig{
			Recipient:            getEnv("ALERT_RECIPIENT_EMAIL", ""),
			ErrorRateThreshold:   getEnvAsFloat("ALERT_ERROR_RATE", 0.2),
			LatencyThresholdMs:   getEnvAsInt("ALERT_LATENCY_MS", 10000),
			SatisfactionMinimum:  getEnvAsFloat("ALERT_SATISFACTION_MIN", 2.5),
			EscalationRateLimit:  getEnvAsFloat("ALERT_ESCALATION_RATE", 0.3),
			EvaluationWindowSize: getEnvAsInt("ALERT_WINDOW_SIZE", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1/"
	defaultDeepSeekBaseURL = "https://api.deepseek.com/"
)

type Config struct {
	HTTPPort        string
	DatabaseURL     string
	LogLevel        string
	OpenAIBaseURL   string
	DeepSeekBaseURL string
	GeminiEndpoint  string
	Temperature     float64
	ShutdownTimeout time.Duration
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() Config {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "coaching.db"),
		LogLevel:        strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", defaultOpenAIBaseURL),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", defaultDeepSeekBaseURL),
		GeminiEndpoint:  getEnv("GEMINI_ENDPOINT", ""),
		Temperature:     getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func (c Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}

// UsesPostgres reports whether DatabaseURL is a PostgreSQL DSN rather than a sqlite path.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
	ProviderNone   = "none"
)

// DefaultJSONOutput is where results are written when no path is configured.
const DefaultJSONOutput = "extracted_financial_entities.json"

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Cache    CacheConfig
	OCR      OCRConfig
	Batch    BatchConfig
	Output   OutputConfig
	Database DatabaseConfig
	Fallback FallbackConfig
	Log      LogConfig
}

// LLMConfig holds language-model channel configuration
type LLMConfig struct {
	Provider    string
	Timeout     time.Duration
	Temperature float32

	OllamaHost  string
	OllamaModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	VertexProject  string
	VertexLocation string
	VertexModel    string
}

// CacheConfig holds completion-cache configuration
type CacheConfig struct {
	Enabled       bool
	RedisAddr     string // empty = in-process cache
	RedisPassword string
	TTL           time.Duration
}

// OCRConfig holds text acquisition configuration
type OCRConfig struct {
	Pdftotext    string
	DisableExec  bool
	MaxTextBytes int64 // 0 = no limit for txt/md inputs
}

// BatchConfig holds batch runner configuration
type BatchConfig struct {
	Workers         int
	Inputs          string // comma-separated paths
	DocumentTimeout time.Duration
}

// OutputConfig holds sink configuration
type OutputConfig struct {
	JSONPath string
	XLSXPath string
	DBURL    string
}

// DatabaseConfig holds database pool configuration
type DatabaseConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// FallbackConfig holds pattern extractor configuration
type FallbackConfig struct {
	IssuersFile string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
	JSON  bool
}

// LoadConfig loads .env files (missing ones are ignored) and then reads configuration
// from environment variables. Variables already set in the environment win.
func LoadConfig(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.1"),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			VertexProject:  getEnv("VERTEX_PROJECT", ""),
			VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
			VertexModel:    getEnv("VERTEX_MODEL", "gemini-1.5-pro"),
		},
		Cache: CacheConfig{
			Enabled:       getEnvAsBool("LLM_CACHE", false),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			TTL:           getEnvAsDuration("LLM_CACHE_TTL", 24*time.Hour),
		},
		OCR: OCRConfig{
			Pdftotext:    getEnv("PDFTOTEXT_BIN", "pdftotext"),
			DisableExec:  getEnvAsBool("OCR_PURE_GO", false),
			MaxTextBytes: getEnvAsInt64("OCR_MAX_TEXT_BYTES", 0),
		},
		Batch: BatchConfig{
			Workers:         getEnvAsInt("FINREPORT_WORKERS", 1),
			Inputs:          getEnv("FINREPORT_INPUTS", ""),
			DocumentTimeout: getEnvAsDuration("FINREPORT_DOC_TIMEOUT", 0),
		},
		Output: OutputConfig{
			JSONPath: getEnv("FINREPORT_OUT", DefaultJSONOutput),
			XLSXPath: getEnv("FINREPORT_XLSX", ""),
			DBURL:    getEnv("DB_URL", ""),
		},
		Database: DatabaseConfig{
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 0),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Fallback: FallbackConfig{
			IssuersFile: getEnv("FINREPORT_ISSUERS_FILE", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("LLM_PROVIDER", c.LLM.Provider, OneOf(ProviderOllama, ProviderOpenAI, ProviderVertex, ProviderNone))
	v.Field("FINREPORT_WORKERS", c.Batch.Workers, Positive)
	v.Field("FINREPORT_OUT", c.Output.JSONPath, Required)
	v.Field("LOG_LEVEL", strings.ToLower(c.Log.Level), OneOf("debug", "info", "warn", "error"))
	switch c.LLM.Provider {
	case ProviderOpenAI:
		v.Field("OPENAI_API_KEY", c.LLM.OpenAIKey, Required)
	case ProviderVertex:
		v.Field("VERTEX_PROJECT", c.LLM.VertexProject, Required)
		v.Field("VERTEX_LOCATION", c.LLM.VertexLocation, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string `validate:"required,numeric"`
	Env  string `validate:"oneof=development production test"`

	// Database
	DatabaseURL string `validate:"required"`

	// Redis (optional, retrieval cache falls back to memory)
	RedisURL      string
	RedisPoolSize int           `validate:"gte=0"`
	RedisTimeout  time.Duration `validate:"gte=0"`

	// Generation
	LLMProvider string `validate:"oneof=gemini openai"`

	// Gemini AI
	GeminiAPIKey         string  `validate:"required"`
	GeminiModel          string  `validate:"required"`
	GeminiTemperature    float64 `validate:"gte=0,lte=2"`
	GeminiConcurrentReqs int     `validate:"gte=1"`

	// Embeddings
	EmbeddingModel      string `validate:"required"`
	EmbeddingDimensions int    `validate:"gte=1"`

	// OpenAI
	OpenAIAPIKey  string `validate:"required_if=LLMProvider openai"`
	OpenAIModel   string
	OpenAIBaseURL string `validate:"omitempty,url"`

	// Retrieval
	RetrievalTopK     int           `validate:"gte=1"`
	RetrievalCacheTTL time.Duration `validate:"gte=0"`

	// Query augmentation / history windows
	AugmentTurnWindow  int `validate:"gte=1"`
	VagueQueryMaxWords int `validate:"gte=1"`
	HistoryLineWindow  int `validate:"gte=1"`

	// HTTP
	AllowedOrigins []string `validate:"min=1,dive,required"`
	ChatRateLimit  int      `validate:"gte=0"`

	// Logging
	LogFile string

	// Ingest
	IngestChunkSize    int `validate:"gte=1"`
	IngestChunkOverlap int `validate:"gte=0,ltfield=IngestChunkSize"`
	IngestWorkers      int `validate:"gte=1"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8000"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		RedisPoolSize:        getEnvAsIntOrDefault("REDIS_POOL_SIZE", 10),
		RedisTimeout:         getEnvAsDurationOrDefault("REDIS_TIMEOUT", 500*time.Millisecond),
		LLMProvider:          strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature:    getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.3),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		EmbeddingModel:       getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDimensions:  getEnvAsIntOrDefault("EMBEDDING_DIMENSIONS", 768),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		RetrievalTopK:        getEnvAsIntOrDefault("RETRIEVAL_TOP_K", 4),
		RetrievalCacheTTL:    getEnvAsDurationOrDefault("RETRIEVAL_CACHE_TTL", 10*time.Minute),
		AugmentTurnWindow:    getEnvAsIntOrDefault("AUGMENT_TURN_WINDOW", 4),
		VagueQueryMaxWords:   getEnvAsIntOrDefault("VAGUE_QUERY_MAX_WORDS", 5),
		HistoryLineWindow:    getEnvAsIntOrDefault("HISTORY_LINE_WINDOW", 6),
		AllowedOrigins:       getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		ChatRateLimit:        getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 30),
		LogFile:              getEnvOrDefault("LOG_FILE", ""),
		IngestChunkSize:      getEnvAsIntOrDefault("INGEST_CHUNK_SIZE", 1000),
		IngestChunkOverlap:   getEnvAsIntOrDefault("INGEST_CHUNK_OVERLAP", 200),
		IngestWorkers:        getEnvAsIntOrDefault("INGEST_WORKERS", 4),
	}

	return cfg
}

// Validate checks the loaded values and reports every violated field.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// getEnvAsDurationOrDefault accepts Go durations ("10m") or plain seconds ("600").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

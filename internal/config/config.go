package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
// Note: This is a stateless configuration - auth and billing are handled
// by the gateway in front of this service.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Generation parameters
	Model       string        // Default model for melody generation
	Temperature float64       // Sampling temperature
	MaxTokens   int64         // Maximum tokens per LLM response
	CallTimeout time.Duration // Per-call timeout for LLM requests

	// Retry policy
	MaxRetries      int           // Maximum retries for recoverable LLM failures
	RetryBaseDelay  time.Duration // Base delay for exponential backoff
	RetryMultiplier float64       // Backoff multiplier per attempt

	// Chunked generation
	ChunkingThreshold int // Syllable count above which generation is chunked
	MaxNotesPerChunk  int // Syllable bound per chunk

	// Observability
	SentryDSN string // Sentry DSN for error tracking
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		Model:             getEnv("MODEL_NAME", "gpt-4o-mini"),
		Temperature:       getEnvFloat("TEMPERATURE", 0.7, 0.0, 2.0),
		MaxTokens:         int64(getEnvInt("MAX_TOKENS", 1500, 1, 32000)),
		CallTimeout:       time.Duration(getEnvInt("API_TIMEOUT", 30, 1, 300)) * time.Second,
		MaxRetries:        getEnvInt("MAX_RETRIES", 3, 0, 10),
		RetryBaseDelay:    time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1000, 1, 60000)) * time.Millisecond,
		RetryMultiplier:   getEnvFloat("RETRY_MULTIPLIER", 2.0, 1.0, 10.0),
		ChunkingThreshold: getEnvInt("MELODY_CHUNKING_THRESHOLD", 40, 1, 10000),
		MaxNotesPerChunk:  getEnvInt("MELODY_MAX_NOTES_PER_CHUNK", 40, 1, 1000),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer from the environment, falling back to the
// default when the value is missing, malformed, or out of range.
func getEnvInt(key string, defaultValue, minVal, maxVal int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	if value < minVal || value > maxVal {
		log.Printf("%s=%d outside [%d, %d], using default %d", key, value, minVal, maxVal, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue, minVal, maxVal float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %g", key, raw, defaultValue)
		return defaultValue
	}

	if value < minVal || value > maxVal {
		log.Printf("%s=%g outside [%g, %g], using default %g", key, value, minVal, maxVal, defaultValue)
		return defaultValue
	}

	return value
}

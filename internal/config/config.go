package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// Data directory for page, profile and history records
	DataDir string

	// Scorer (LLM) settings
	LLMProvider    string
	LLMModel       string
	OllamaHost     string
	OpenAIKey      string
	AnthropicKey   string
	ScoreChunkSize int

	// Fetching
	FetchTimeout time.Duration
	UserAgent    string

	// Query limits
	MaxTags        int
	MaxBooksPerTag int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		DataDir: getEnv("STORYSHELF_DATA_DIR", defaultDataDir()),

		LLMProvider:    getEnv("STORYSHELF_LLM_PROVIDER", ProviderOllama),
		LLMModel:       getEnv("STORYSHELF_LLM_MODEL", "llama3.2"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
		ScoreChunkSize: getEnvInt("STORYSHELF_SCORE_CHUNK_SIZE", 4000),

		FetchTimeout: getEnvDuration("STORYSHELF_FETCH_TIMEOUT", 30*time.Second),
		UserAgent:    getEnv("STORYSHELF_USER_AGENT", "storyshelf/1.0"),

		MaxTags:        getEnvInt("STORYSHELF_MAX_TAGS", 1000),
		MaxBooksPerTag: getEnvInt("STORYSHELF_MAX_BOOKS_PER_TAG", 10000),

		LogFile:  getEnv("STORYSHELF_LOG_FILE", "/tmp/storyshelf.log"),
		LogLevel: parseLogLevel(getEnv("STORYSHELF_LOG_LEVEL", "INFO")),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storyshelf"
	}
	return filepath.Join(home, ".storyshelf")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

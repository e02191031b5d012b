package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type AIConfig struct {
	GeminiAPIKey string
	Model        string
	Temperature  float64
	MaxTokens    int32
}

type SearchConfig struct {
	SerperAPIKey   string
	SearchTimeout  time.Duration
	ResultsPerCall int
	// ImageProvider selects the image lookup path: "unsplash" builds a
	// deterministic source URL, "serper" queries the image search API and
	// falls back to unsplash on failure.
	ImageProvider string
}

type StoreConfig struct {
	// DataDir holds the embedded profile store files.
	DataDir string
}

type ObservabilityConfig struct {
	// OTLPEndpoint is the collector base URL for trace export. When it is
	// unreachable the tracer runs without export.
	OTLPEndpoint string
	// MetricsAddr is the listen address of the Prometheus scrape endpoint.
	MetricsAddr string
}

type Config struct {
	ServerPort    string
	AI            AIConfig
	Search        SearchConfig
	Store         StoreConfig
	Observability ObservabilityConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:  getEnvFloatOrDefault("GEMINI_TEMPERATURE", 0.8),
			MaxTokens:    4096,
		},
		Search: SearchConfig{
			SerperAPIKey:   os.Getenv("SERPER_API_KEY"),
			SearchTimeout:  5 * time.Second,
			ResultsPerCall: 3,
			ImageProvider:  getEnvOrDefault("IMAGE_PROVIDER", "unsplash"),
		},
		Store: StoreConfig{
			DataDir: getEnvOrDefault("DATA_DIR", "data"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnvOrDefault("OTLP_ENDPOINT", "http://localhost:4318"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
		},
	}

	if cfg.AI.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

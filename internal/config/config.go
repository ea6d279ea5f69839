// Package config holds the process configuration: defaults overridden by
// TUTORD_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	Pipeline   PipelineConfig
	Enrichment EnrichmentConfig
	Storage    StorageConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port int
}

type OpenAIConfig struct {
	APIKey      string
	ChatModel   string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
}

type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type EnrichmentConfig struct {
	Enabled bool
	Timeout string // duration string, e.g. "20s"
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
		},
		OpenAI: OpenAIConfig{
			ChatModel:   "gpt-4",
			EmbedModel:  "text-embedding-3-small",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		Pipeline: PipelineConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			TopK:         3,
		},
		Enrichment: EnrichmentConfig{
			Enabled: false,
			Timeout: "20s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tutord"
	}
	return filepath.Join(home, ".tutord")
}

// Load reads configuration from defaults and environment variables.
// The OpenAI API key is required; TUTORD_OPENAI_API_KEY takes precedence
// over the conventional OPENAI_API_KEY.
func Load() (Config, error) {
	return loadWith(os.Getenv)
}

func loadWith(getenv func(string) string) (Config, error) {
	cfg := defaults()

	if v := getenv("TUTORD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TUTORD_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := getenv("TUTORD_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	} else if v := getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := getenv("TUTORD_CHAT_MODEL"); v != "" {
		cfg.OpenAI.ChatModel = v
	}
	if v := getenv("TUTORD_EMBED_MODEL"); v != "" {
		cfg.OpenAI.EmbedModel = v
	}
	if v := getenv("TUTORD_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := getenv("TUTORD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("TUTORD_ENRICHMENT"); v != "" {
		cfg.Enrichment.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := getenv("TUTORD_ENRICHMENT_TIMEOUT"); v != "" {
		cfg.Enrichment.Timeout = v
	}

	if cfg.OpenAI.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: OpenAI API key. Set it via environment variable TUTORD_OPENAI_API_KEY or OPENAI_API_KEY")
	}

	return cfg, nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	OpenAI      OpenAIConfig      `json:"openai"`
	EmotionAPI  EmotionAPIConfig  `json:"emotion_api"`
	VectorStore VectorStoreConfig `json:"vector_store"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type OpenAIConfig struct {
	APIKey             string `json:"api_key,omitempty"`
	SummaryModel       string `json:"summary_model"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	MaxEmbedChars      int    `json:"max_embed_chars"`
}

type EmotionAPIConfig struct {
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url"`
	PageSize int    `json:"page_size"`
}

type VectorStoreConfig struct {
	URL            string `json:"url"`
	APIKey         string `json:"api_key,omitempty"`
	Namespace      string `json:"namespace"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".serene"))
	}

	setDefaults()

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Missing config file is fine, defaults plus env cover it
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "serene")
	viper.SetDefault("database.database", "serene")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("openai.summary_model", "gpt-4o-mini")
	viper.SetDefault("openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("openai.embedding_dimension", 1024)
	viper.SetDefault("openai.max_embed_chars", 8000)
	viper.SetDefault("emotion_api.base_url", "https://api.hume.ai/v0/evi")
	viper.SetDefault("emotion_api.page_size", 100)
	viper.SetDefault("vector_store.namespace", "conversation-namespace")
	viper.SetDefault("vector_store.timeout_seconds", 30)
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("SERENE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("SERENE_HOST"); host != "" {
		cfg.Server.Host = host
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	// External service credentials come from the environment, not config files
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if key := os.Getenv("EMOTION_API_KEY"); key != "" {
		cfg.EmotionAPI.APIKey = key
	}
	if url := os.Getenv("EMOTION_API_URL"); url != "" {
		cfg.EmotionAPI.BaseURL = url
	}
	if url := os.Getenv("VECTOR_DB_URL"); url != "" {
		cfg.VectorStore.URL = url
	}
	if key := os.Getenv("VECTOR_DB_API_KEY"); key != "" {
		cfg.VectorStore.APIKey = key
	}
}

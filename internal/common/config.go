// Package common provides shared utilities for Pagoda
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Pagoda
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Images      ImageConfig   `toml:"images"`
	Clients     ClientsConfig `toml:"clients"`
	Chart       ChartConfig   `toml:"chart"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection settings.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ImageConfig selects where uploaded photos are kept.
type ImageConfig struct {
	Backend   string `toml:"backend"` // "file" or "s3"
	Path      string `toml:"path"`    // file backend base directory
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"` // Custom endpoint for S3-compatible stores (MinIO, R2)
	MaxSizeMB int    `toml:"max_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (c *ImageConfig) MaxBytes() int64 {
	if c.MaxSizeMB <= 0 {
		return 10 << 20
	}
	return int64(c.MaxSizeMB) << 20
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// ChartConfig holds the default donut geometry.
type ChartConfig struct {
	Size       int     `toml:"size"`
	InnerRatio float64 `toml:"inner_ratio"`
	OuterRatio float64 `toml:"outer_ratio"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "pagoda",
			Database:  "pagoda",
			Username:  "root",
			Password:  "root",
		},
		Images: ImageConfig{
			Backend:   "file",
			Path:      "data/uploads",
			MaxSizeMB: 10,
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:     "gemini-2.5-flash",
				RateLimit: 2,
				Timeout:   "90s",
			},
		},
		Chart: ChartConfig{
			Size:       600,
			InnerRatio: 0.5,
			OuterRatio: 0.9,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Outputs:    []string{"console"},
			FilePath:   "./logs/pagoda.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first; variables already
// set in the environment win.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	return config, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PAGODA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PAGODA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PAGODA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PAGODA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("PAGODA_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("PAGODA_STORAGE_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("PAGODA_STORAGE_DATABASE"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("PAGODA_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("PAGODA_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	// Image overrides
	if v := os.Getenv("PAGODA_IMAGES_BACKEND"); v != "" {
		config.Images.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PAGODA_IMAGES_PATH"); v != "" {
		config.Images.Path = v
	}
	if v := os.Getenv("PAGODA_IMAGES_BUCKET"); v != "" {
		config.Images.Bucket = v
	}
	if v := os.Getenv("PAGODA_IMAGES_REGION"); v != "" {
		config.Images.Region = v
	} else if v := os.Getenv("AWS_REGION"); v != "" && config.Images.Region == "" {
		config.Images.Region = v
	}
	if v := os.Getenv("PAGODA_IMAGES_ENDPOINT"); v != "" {
		config.Images.Endpoint = v
	}

	if v := os.Getenv("PAGODA_GEMINI_MODEL"); v != "" {
		config.Clients.Gemini.Model = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment or the configured fallback.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "PAGODA_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
	Engine   EngineConfig   `json:"engine"`
	Telegram TelegramConfig `json:"telegram"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver string `json:"driver"` // "sqlite" or "bolt"
	Path   string `json:"path"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIKey string `json:"api_key"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// EngineConfig contains policy engine settings
type EngineConfig struct {
	TickIntervalSeconds int `json:"tick_interval_seconds"`
}

// TelegramConfig contains optional parent notification settings.
// Notifications are disabled when the token is empty.
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// Enabled reports whether Telegram notifications are configured
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Storage.Driver != "sqlite" && c.Storage.Driver != "bolt" {
		return fmt.Errorf("%w: storage driver must be sqlite or bolt", ErrInvalidConfig)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is required", ErrInvalidConfig)
	}

	if c.Security.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	if c.Engine.TickIntervalSeconds < 0 {
		return fmt.Errorf("%w: tick interval cannot be negative", ErrInvalidConfig)
	}

	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("%w: telegram.chat_id is required when a token is set", ErrInvalidConfig)
	}

	return nil
}

// Load loads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("GUARDIAN_HOST", "0.0.0.0"),
			Port: getEnvInt("GUARDIAN_PORT", 8080),
		},
		Storage: StorageConfig{
			Driver: getEnv("GUARDIAN_STORAGE_DRIVER", "sqlite"),
			Path:   getEnv("GUARDIAN_STORAGE_PATH", "./guardian.db"),
		},
		Security: SecurityConfig{
			APIKey: getEnv("GUARDIAN_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("GUARDIAN_LOG_LEVEL", "info"),
			Format: getEnv("GUARDIAN_LOG_FORMAT", "json"),
			File:   getEnv("GUARDIAN_LOG_FILE", ""),
		},
		Engine: EngineConfig{
			TickIntervalSeconds: getEnvInt("GUARDIAN_TICK_INTERVAL_SECONDS", 0),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("GUARDIAN_TELEGRAM_TOKEN", ""),
			ChatID: getEnvInt64("GUARDIAN_TELEGRAM_CHAT_ID", 0),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Storage.Driver == "" {
		config.Storage.Driver = "sqlite"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var intVal int64
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}

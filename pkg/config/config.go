package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Application settings
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Graph   GraphConfig   `yaml:"graph"`
	Refresh RefreshConfig `yaml:"refresh"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
}

// Server settings
type ServerConfig struct {
	Port           string        `yaml:"port" validate:"required,numeric"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Logging settings
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// GraphConfig configures the ad metrics provider client.
type GraphConfig struct {
	BaseURL            string        `yaml:"base_url" validate:"required,url"`
	APIVersion         string        `yaml:"api_version" validate:"required"`
	RequestTimeout     time.Duration `yaml:"request_timeout" validate:"gt=0"`
	RateLimitPerSecond int           `yaml:"rate_limit_per_second" validate:"gt=0"`
	AccountLimit       int           `yaml:"account_limit" validate:"gt=0"`
	MaxPages           int           `yaml:"max_pages" validate:"gt=0"`
}

// RefreshConfig holds the polling cadence. Defaults follow the dashboard:
// 30s against live data, 3s in demo mode, 60s per chart bucket.
type RefreshConfig struct {
	RealInterval      time.Duration `yaml:"real_interval" validate:"gt=0"`
	SimulatedInterval time.Duration `yaml:"simulated_interval" validate:"gt=0"`
	ChartInterval     time.Duration `yaml:"chart_interval" validate:"gt=0"`
	ChartWindow       int           `yaml:"chart_window" validate:"min=2"`
	AutoRefresh       bool          `yaml:"auto_refresh"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// AIConfig configures the narrative summary generator. An empty key
// disables it.
type AIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model" validate:"required"`
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 60 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Graph: GraphConfig{
			BaseURL:            "https://graph.facebook.com",
			APIVersion:         "v19.0",
			RequestTimeout:     30 * time.Second,
			RateLimitPerSecond: 10,
			AccountLimit:       100,
			MaxPages:           10,
		},
		Refresh: RefreshConfig{
			RealInterval:      30 * time.Second,
			SimulatedInterval: 3 * time.Second,
			ChartInterval:     60 * time.Second,
			ChartWindow:       13,
			AutoRefresh:       true,
		},
		Storage: StorageConfig{
			Path: "data/adsreporter.db",
		},
		AI: AIConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.RequestTimeout = getDurationEnv("SERVER_REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.AllowedOrigins = getListEnv("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	c.Graph.BaseURL = getEnv("GRAPH_API_URL", c.Graph.BaseURL)
	c.Graph.APIVersion = getEnv("GRAPH_API_VERSION", c.Graph.APIVersion)
	c.Graph.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", c.Graph.RequestTimeout)
	c.Graph.RateLimitPerSecond = getIntEnv("RATE_LIMIT_PER_SECOND", c.Graph.RateLimitPerSecond)
	c.Graph.AccountLimit = getIntEnv("GRAPH_ACCOUNT_LIMIT", c.Graph.AccountLimit)
	c.Graph.MaxPages = getIntEnv("GRAPH_MAX_PAGES", c.Graph.MaxPages)

	c.Refresh.RealInterval = getDurationEnv("REFRESH_INTERVAL", c.Refresh.RealInterval)
	c.Refresh.SimulatedInterval = getDurationEnv("SIMULATED_REFRESH_INTERVAL", c.Refresh.SimulatedInterval)
	c.Refresh.ChartInterval = getDurationEnv("CHART_INTERVAL", c.Refresh.ChartInterval)
	c.Refresh.ChartWindow = getIntEnv("CHART_WINDOW", c.Refresh.ChartWindow)
	c.Refresh.AutoRefresh = getBoolEnv("AUTO_REFRESH", c.Refresh.AutoRefresh)

	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)

	// API_KEY is the name the dashboard build used.
	c.AI.APIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", c.AI.APIKey))
	c.AI.Model = getEnv("GEMINI_MODEL", c.AI.Model)
	c.AI.BaseURL = getEnv("GEMINI_BASE_URL", c.AI.BaseURL)
	c.AI.Timeout = getDurationEnv("GEMINI_TIMEOUT", c.AI.Timeout)
}

// Validate checks the struct tags on every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

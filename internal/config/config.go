package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultPerPage is the default number of repositories fetched per refresh.
	DefaultPerPage = 10

	// DefaultGitHubTimeout bounds one call to the GitHub API.
	DefaultGitHubTimeout = 30 * time.Second

	// maxPerPage is GitHub's upper bound for search page size.
	maxPerPage = 100
)

// Config holds all configuration for tech-tracker.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// StorageConfig holds the persistent key-value store settings.
type StorageConfig struct {
	Path      string `mapstructure:"path"`
	ManualKey string `mapstructure:"manual_key"`
	APIKey    string `mapstructure:"api_key"`
}

// GitHubConfig holds settings for the repository-search source.
type GitHubConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PerPage         int           `mapstructure:"per_page"`
	DefaultLanguage string        `mapstructure:"default_language"`
}

// String returns a safe representation of GitHubConfig with the token masked.
func (c GitHubConfig) String() string {
	return fmt.Sprintf("GitHubConfig{BaseURL:%s, Token:%s, Timeout:%s, PerPage:%d, DefaultLanguage:%s}",
		c.BaseURL, maskToken(c.Token), c.Timeout, c.PerPage, c.DefaultLanguage)
}

// maskToken shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskToken(token string) string {
	const visible = 4
	if token == "" {
		return ""
	}
	if len(token) <= visible*2 {
		return "***"
	}
	return token[:visible] + "****" + token[len(token)-visible:]
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a .env file, the config file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("storage.path", filepath.Join(homeDir(), ".tech-tracker", "tracker.db"))
	v.SetDefault("storage.manual_key", "techTrackerData")
	v.SetDefault("storage.api_key", "apiTechnologies")

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", DefaultGitHubTimeout)
	v.SetDefault("github.per_page", DefaultPerPage)
	v.SetDefault("github.default_language", "javascript")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".tech-tracker"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("TECH_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("github.token", "TECH_TRACKER_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("storage.path", "TECH_TRACKER_STORAGE_PATH")
	_ = v.BindEnv("api.listen_addr", "TECH_TRACKER_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "TECH_TRACKER_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Storage.ManualKey == "" {
		return fmt.Errorf("storage.manual_key must not be empty")
	}
	if c.Storage.APIKey == "" {
		return fmt.Errorf("storage.api_key must not be empty")
	}
	if c.Storage.ManualKey == c.Storage.APIKey {
		return fmt.Errorf("storage.manual_key and storage.api_key must differ (both %q)", c.Storage.APIKey)
	}
	if c.GitHub.BaseURL == "" {
		return fmt.Errorf("github.base_url must not be empty")
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be greater than 0")
	}
	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > maxPerPage {
		return fmt.Errorf("github.per_page must be between 1 and %d", maxPerPage)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

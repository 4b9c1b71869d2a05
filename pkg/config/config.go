package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	InviteDomain    string        `mapstructure:"INVITE_DOMAIN"`
	ValidateWorkers int           `mapstructure:"VALIDATE_WORKERS"`
	ValidateTimeout time.Duration `mapstructure:"VALIDATE_TIMEOUT"`
	PageTimeout     time.Duration `mapstructure:"PAGE_TIMEOUT"`
	PageDelay       time.Duration `mapstructure:"PAGE_DELAY"`
	SearchBaseURL   string        `mapstructure:"SEARCH_BASE_URL"`
	FetchMode       string        `mapstructure:"FETCH_MODE"`
	Proxies         []string      `mapstructure:"PROXIES"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RunTTL        time.Duration `mapstructure:"RUN_TTL"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	WordPressSiteURL     string `mapstructure:"WORDPRESS_SITE_URL"`
	WordPressUsername    string `mapstructure:"WORDPRESS_USERNAME"`
	WordPressAppPassword string `mapstructure:"WORDPRESS_APP_PASSWORD"`
}

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

var defaults = map[string]any{
	"SERVER_PORT":            "8080",
	"LOG_LEVEL":              "info",
	"INVITE_DOMAIN":          "chat.whatsapp.com",
	"VALIDATE_WORKERS":       8,
	"VALIDATE_TIMEOUT":       20 * time.Second,
	"PAGE_TIMEOUT":           15 * time.Second,
	"PAGE_DELAY":             time.Second,
	"SEARCH_BASE_URL":        "https://www.google.com",
	"FETCH_MODE":             FetchModeHTTP,
	"PROXIES":                "",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"RUN_TTL":                time.Hour,
	"POSTGRES_URL":           "",
	"GEMINI_API_KEY":         "",
	"GEMINI_MODEL":           "gemini-2.0-flash",
	"WORDPRESS_SITE_URL":     "",
	"WORDPRESS_USERNAME":     "",
	"WORDPRESS_APP_PASSWORD": "",
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine; the environment alone is enough in production.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Proxies = splitList(cfg.Proxies)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.ValidateWorkers < 1 {
		return fmt.Errorf("VALIDATE_WORKERS must be at least 1, got %d", c.ValidateWorkers)
	}
	if c.ValidateTimeout <= 0 {
		return fmt.Errorf("VALIDATE_TIMEOUT must be positive, got %s", c.ValidateTimeout)
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("PAGE_TIMEOUT must be positive, got %s", c.PageTimeout)
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("PAGE_DELAY must not be negative, got %s", c.PageDelay)
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("FETCH_MODE must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, c.FetchMode)
	}
	return nil
}

// EnrichmentEnabled reports whether a Gemini key is configured.
func (c *Config) EnrichmentEnabled() bool { return c.GeminiAPIKey != "" }

// PublishingEnabled reports whether WordPress credentials are configured.
func (c *Config) PublishingEnabled() bool {
	return c.WordPressSiteURL != "" && c.WordPressUsername != "" && c.WordPressAppPassword != ""
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

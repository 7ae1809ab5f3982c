package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// devJWTSecret is only used by LoadWithDefaults.
const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `envconfig:"DB"`
	HTTP     HTTPConfig     `envconfig:"HTTP"`
	GRPC     GRPCConfig     `envconfig:"GRPC"`
	Auth     AuthConfig     `envconfig:"JWT"`
	OAuth    OAuthConfig    `envconfig:"OAUTH"`
	Google   OAuthClient    `envconfig:"GOOGLE"`
	GitHub   OAuthClient    `envconfig:"GITHUB"`
	AI       AIConfig       `envconfig:"AI"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Log      LogConfig      `envconfig:"LOG"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver string `split_words:"true" default:"sqlite3"`    // sqlite3 | postgres
	Path   string `split_words:"true" default:"library.db"` // SQLite file path or Postgres DSN
}

// HTTPConfig contains HTTP API settings.
type HTTPConfig struct {
	Address string `split_words:"true" default:":8080"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `split_words:"true" default:":50051"`
}

// AuthConfig contains token settings.
type AuthConfig struct {
	Secret string        `split_words:"true"`
	TTL    time.Duration `split_words:"true" default:"24h"`
}

// OAuthConfig contains the callback and post-login redirect base URLs.
type OAuthConfig struct {
	BackendURL  string `split_words:"true" default:"http://localhost:8080"`
	FrontendURL string `split_words:"true"`
}

// OAuthClient holds one provider's client credentials.
type OAuthClient struct {
	ClientID     string `split_words:"true"`
	ClientSecret string `split_words:"true"`
}

// Enabled reports whether both credentials are present.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// AIConfig selects and tunes the AI provider.
type AIConfig struct {
	Provider       string        `split_words:"true"`
	APIKey         string        `split_words:"true"`
	Model          string        `split_words:"true" default:"gpt-4o-mini"`
	EmbeddingModel string        `split_words:"true" default:"text-embedding-3-small"`
	BaseURL        string        `split_words:"true"`
	Timeout        time.Duration `split_words:"true" default:"10s"`
}

// Enabled reports whether a provider-backed AI adapter should be used.
func (c AIConfig) Enabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.Provider), "openai") && c.APIKey != ""
}

// RedisConfig configures the optional embedding cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `split_words:"true"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"text"` // text | json
}

func process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = devJWTSecret
	}
	return cfg, nil
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "***"
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, JWT: %s, AI: %s/%s key=%s, Redis: %q, Google: %t, GitHub: %t}",
		c.Database.Driver, c.HTTP.Address, c.GRPC.Address, mask(c.Auth.Secret),
		c.AI.Provider, c.AI.Model, mask(c.AI.APIKey), c.Redis.Addr,
		c.Google.Enabled(), c.GitHub.Enabled())
}

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/wardrobe-engine/pkg/llm"
	"github.com/ekaya-inc/wardrobe-engine/pkg/outfit"
)

// Config holds all configuration for wardrobe-engine.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// RulesPath optionally points at a YAML file overriding the outfit rule tables.
	RulesPath string `yaml:"rules_path" env:"WARDROBE_RULES_PATH" env-default:""`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	Engine   EngineConfig   `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"wardrobe"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"wardrobe_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MaxIdleConns   int32  `yaml:"max_idle_conns" env:"PGMAX_IDLE_CONNS" env-default:"5"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the analytics cache configuration. An empty Host
// disables caching.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	AnalyticsTTLSeconds int `yaml:"analytics_ttl_seconds" env:"REDIS_ANALYTICS_TTL_SECONDS" env-default:"3600"`
}

// LLMConfig selects and configures the suggestion oracle.
type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint    string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"2000"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.7"`

	TimeoutSeconds int `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
	MaxRetries     int `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"3"`

	BreakerFailures    uint32 `yaml:"breaker_failures" env:"LLM_BREAKER_FAILURES" env-default:"5"`
	BreakerOpenSeconds int    `yaml:"breaker_open_seconds" env:"LLM_BREAKER_OPEN_SECONDS" env-default:"30"`
}

// EngineConfig holds the outfit engine's tunables.
type EngineConfig struct {
	MaxSuggestions      int     `yaml:"max_suggestions" env:"ENGINE_MAX_SUGGESTIONS" env-default:"3"`
	HistoryWindowDays   int     `yaml:"history_window_days" env:"ENGINE_HISTORY_WINDOW_DAYS" env-default:"7"`
	UnderusedPercentile float64 `yaml:"underused_percentile" env:"ENGINE_UNDERUSED_PERCENTILE" env-default:"0.25"`
	// UnderusedLimit caps the underused set that is both rewarded in scoring
	// and listed in the oracle prompt.
	UnderusedLimit int `yaml:"underused_limit" env:"ENGINE_UNDERUSED_LIMIT" env-default:"10"`

	LedgerMaxRetries int `yaml:"ledger_max_retries" env:"ENGINE_LEDGER_MAX_RETRIES" env-default:"5"`

	// Analytics windows, in days.
	AnalyticsWindowDays int `yaml:"analytics_window_days" env:"ENGINE_ANALYTICS_WINDOW_DAYS" env-default:"30"`
	StaleDays           int `yaml:"stale_days" env:"ENGINE_STALE_DAYS" env-default:"30"`

	Scoring outfit.ScoringConfig `yaml:"scoring"`
}

// Load reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Scoring weights start from the engine defaults; YAML only replaces the keys it names.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
		Engine:  EngineConfig{Scoring: outfit.DefaultScoringConfig()},
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds configuration from environment variables and defaults only.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
		Engine:  EngineConfig{Scoring: outfit.DefaultScoringConfig()},
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges that cleanenv cannot express.
func (c *Config) Validate() error {
	e := c.Engine
	if e.MaxSuggestions <= 0 {
		return fmt.Errorf("engine.max_suggestions must be positive")
	}
	if e.HistoryWindowDays <= 0 {
		return fmt.Errorf("engine.history_window_days must be positive")
	}
	if e.UnderusedPercentile < 0 || e.UnderusedPercentile > 1 {
		return fmt.Errorf("engine.underused_percentile must be within [0, 1]")
	}
	if e.UnderusedLimit < 0 {
		return fmt.Errorf("engine.underused_limit must not be negative")
	}
	if e.AnalyticsWindowDays <= 0 || e.StaleDays <= 0 {
		return fmt.Errorf("engine.analytics_window_days and engine.stale_days must be positive")
	}
	if e.LedgerMaxRetries < 0 {
		return fmt.Errorf("engine.ledger_max_retries must not be negative")
	}
	if err := e.Scoring.Validate(); err != nil {
		return fmt.Errorf("engine.scoring: %w", err)
	}
	return nil
}

// ConnectionString returns a PostgreSQL keyword/value connection string.
// An empty password is left out so the server's auth method decides.
func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		connStr += " password=" + c.Password
	}
	return connStr
}

// Enabled reports whether a Redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port address of the Redis server.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(ResolveHostForDocker(c.Host), strconv.Itoa(c.Port))
}

// AnalyticsTTL returns the analytics cache lifetime.
func (c *RedisConfig) AnalyticsTTL() time.Duration {
	return time.Duration(c.AnalyticsTTLSeconds) * time.Second
}

// ClientConfig converts the section into an llm.Config.
func (c *LLMConfig) ClientConfig() *llm.Config {
	return &llm.Config{
		Provider:  c.Provider,
		Endpoint:  ResolveURLForDocker(c.Endpoint),
		Model:     c.Model,
		APIKey:    c.APIKey,
		MaxTokens: c.MaxTokens,
	}
}

// BreakerConfig converts the breaker settings into an llm.BreakerConfig.
func (c *LLMConfig) BreakerConfig() llm.BreakerConfig {
	cfg := llm.DefaultBreakerConfig()
	cfg.Name = "llm-" + c.Provider
	cfg.ConsecutiveFailures = c.BreakerFailures
	cfg.OpenTimeout = time.Duration(c.BreakerOpenSeconds) * time.Second
	return cfg
}

// Timeout returns the per-call oracle timeout.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

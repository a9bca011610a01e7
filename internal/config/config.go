package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the stylesearch API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AIConfig holds the generative provider settings. An empty APIKey disables AI expansion.
type AIConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	TextModel         string  `yaml:"text_model"`
	VisionModel       string  `yaml:"vision_model"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float32 `yaml:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RetryAttempts     int     `yaml:"retry_attempts"`
	RetryBaseDelayMs  int     `yaml:"retry_base_delay_ms"`
	CaptionCacheTTL   string  `yaml:"caption_cache_ttl"` // Go duration, "0" disables the cache
}

// Enabled reports whether an AI provider is configured.
func (c AIConfig) Enabled() bool { return c.APIKey != "" }

// CaptionTTL parses CaptionCacheTTL. Zero disables caching.
func (c AIConfig) CaptionTTL() time.Duration {
	d, err := time.ParseDuration(c.CaptionCacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// RetryBaseDelay returns the first retry backoff.
func (c AIConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// SearchConfig holds pipeline limits.
type SearchConfig struct {
	MaxPageSize     int     `yaml:"max_page_size"`
	MaxKeywords     int     `yaml:"max_keywords"`
	CandidateWindow int     `yaml:"candidate_window"`
	ComparisonBand  float64 `yaml:"comparison_band"`
	AugmentLimit    int     `yaml:"augment_limit"`
	RelatedLimit    int     `yaml:"related_limit"`
	MaxCompareIDs   int     `yaml:"max_compare_ids"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	BatchSize int    `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML with ${VAR} substitution, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.AI.TextModel == "" {
		c.AI.TextModel = "gpt-4o-mini"
	}
	if c.AI.VisionModel == "" {
		c.AI.VisionModel = c.AI.TextModel
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 512
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 30
	}
	if c.AI.Burst <= 0 {
		c.AI.Burst = 1
	}
	if c.AI.RetryAttempts <= 0 {
		c.AI.RetryAttempts = 3
	}
	if c.AI.RetryBaseDelayMs <= 0 {
		c.AI.RetryBaseDelayMs = 1000
	}
	if c.AI.CaptionCacheTTL == "" {
		c.AI.CaptionCacheTTL = "24h"
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.MaxKeywords <= 0 {
		c.Search.MaxKeywords = 12
	}
	if c.Search.CandidateWindow <= 0 {
		c.Search.CandidateWindow = 1000
	}
	if c.Search.ComparisonBand <= 0 {
		c.Search.ComparisonBand = 100
	}
	if c.Search.AugmentLimit <= 0 {
		c.Search.AugmentLimit = 5
	}
	if c.Search.RelatedLimit <= 0 {
		c.Search.RelatedLimit = 4
	}
	if c.Search.MaxCompareIDs <= 0 {
		c.Search.MaxCompareIDs = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "stylesearch:"
	}
	if c.Storage.BatchSize <= 0 {
		c.Storage.BatchSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.AI.RequestsPerSecond < 0 {
		return fmt.Errorf("ai.requests_per_second must not be negative, got %g", c.AI.RequestsPerSecond)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2, got %g", c.AI.Temperature)
	}
	if d, err := time.ParseDuration(c.AI.CaptionCacheTTL); err != nil || d < 0 {
		return fmt.Errorf("ai.caption_cache_ttl must be a non-negative duration, got %q", c.AI.CaptionCacheTTL)
	}
	if c.Search.AugmentLimit > 5 {
		return fmt.Errorf("search.augment_limit must be at most 5, got %d", c.Search.AugmentLimit)
	}
	if c.Search.MaxCompareIDs < 2 {
		return fmt.Errorf("search.max_compare_ids must be at least 2, got %d", c.Search.MaxCompareIDs)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. configFile, when non-empty,
// replaces the search paths.
func New(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/project-digest/")
		v.AddConfigPath("$HOME/.project-digest")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PROJECT_DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-3.5-turbo-instruct")
	v.SetDefault("openai.mode", "completion")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.top_p", 1.0)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.top_p", 0.9)

	// Completion parameters shared by every field prompt
	v.SetDefault("completion.max_tokens", 150)
	v.SetDefault("completion.temperature", 0.5)
	v.SetDefault("completion.max_body_size", 16384)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/completion_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/project_digest")

	// Store defaults
	v.SetDefault("store.type", "sharepoint")
	v.SetDefault("store.input_path", "Shared Documents/Project Emails")
	v.SetDefault("store.output_path", "Shared Documents/Project Summaries")
	v.SetDefault("sharepoint.site_url", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("local.root", "./data")

	// Auth defaults
	v.SetDefault("auth.tenant_id", "common")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.flow", "device_code")
	v.SetDefault("auth.scopes", []string{})
	v.SetDefault("auth.token_file", "")

	v.SetDefault("input.extensions", []string{".msg"})
	v.SetDefault("dedup.key", "title")
	v.SetDefault("extraction.firm_name", "")

	v.SetDefault("schedule.cron", "")
	v.SetDefault("schedule.run_on_start", true)

	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.address", "localhost:587")
	v.SetDefault("notify.email.username", "")
	v.SetDefault("notify.email.password", "")
	v.SetDefault("notify.email.from", "")
	v.SetDefault("notify.email.to", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a value, used by command line flags
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

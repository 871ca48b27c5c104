package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey    string
	ModelName string
	Mode      string
	BaseURL   string
	TopP      float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
	TopP      float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
	TopP    float32
}

// CompletionConfig holds the parameters of every field prompt
type CompletionConfig struct {
	MaxTokens   int
	Temperature float32
	MaxBodySize int
}

// BreakerConfig configures the circuit breaker around the LLM client
type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32
	Timeout     time.Duration
}

// CacheConfig configures the completion cache
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// StoreConfig selects the remote store and its folders
type StoreConfig struct {
	Type       string
	InputPath  string
	OutputPath string
}

// SharePointConfig locates the document library
type SharePointConfig struct {
	SiteURL string
}

// S3Config locates the bucket used by the s3 store
type S3Config struct {
	Bucket string
	Region string
}

// LocalConfig roots the local directory store
type LocalConfig struct {
	Root string
}

// AuthConfig configures token acquisition
type AuthConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Flow         string
	Scopes       []string
	TokenFile    string
}

// ScheduleConfig controls when runs happen
type ScheduleConfig struct {
	Cron       string
	RunOnStart bool
}

// EmailNotifyConfig configures the run report mail
type EmailNotifyConfig struct {
	Enabled  bool
	Address  string
	Username string
	Password string
	From     string
	To       []string
}

// PipelineConfig holds the pipeline options that are not tied to an adapter
type PipelineConfig struct {
	Extensions []string
	DedupKey   string
	FirmName   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		ModelName: c.GetString("openai.model_name"),
		Mode:      c.GetString("openai.mode"),
		BaseURL:   c.GetString("openai.base_url"),
		TopP:      float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
		TopP:      float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
		TopP:    float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetCompletion returns the completion parameters
func (c *Config) GetCompletion() CompletionConfig {
	return CompletionConfig{
		MaxTokens:   c.GetInt("completion.max_tokens"),
		Temperature: float32(c.GetFloat64("completion.temperature")),
		MaxBodySize: c.GetInt("completion.max_body_size"),
	}
}

// GetBreaker returns the circuit breaker configuration
func (c *Config) GetBreaker() (BreakerConfig, error) {
	timeout, err := c.GetDuration("breaker.timeout")
	if err != nil {
		return BreakerConfig{}, err
	}
	return BreakerConfig{
		Enabled:     c.GetBool("breaker.enabled"),
		MaxFailures: uint32(c.GetInt("breaker.max_failures")),
		Timeout:     timeout,
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetStore returns the store selection
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		InputPath:  c.GetString("store.input_path"),
		OutputPath: c.GetString("store.output_path"),
	}
}

// GetSharePoint returns the SharePoint configuration
func (c *Config) GetSharePoint() SharePointConfig {
	return SharePointConfig{
		SiteURL: strings.TrimRight(c.GetString("sharepoint.site_url"), "/"),
	}
}

// GetS3 returns the S3 configuration
func (c *Config) GetS3() S3Config {
	return S3Config{
		Bucket: c.GetString("s3.bucket"),
		Region: c.GetString("s3.region"),
	}
}

// GetLocal returns the local store configuration
func (c *Config) GetLocal() LocalConfig {
	return LocalConfig{
		Root: c.GetString("local.root"),
	}
}

// GetAuth returns the auth configuration. Without explicit scopes the
// SharePoint host's .default scope is requested.
func (c *Config) GetAuth() (AuthConfig, error) {
	scopes := c.GetStringSlice("auth.scopes")
	if len(scopes) == 0 {
		if site := c.GetSharePoint().SiteURL; site != "" {
			u, err := url.Parse(site)
			if err != nil || u.Host == "" {
				return AuthConfig{}, fmt.Errorf("invalid sharepoint.site_url %q", site)
			}
			scopes = []string{u.Scheme + "://" + u.Host + "/.default"}
		}
	}
	return AuthConfig{
		TenantID:     c.GetString("auth.tenant_id"),
		ClientID:     c.GetString("auth.client_id"),
		ClientSecret: c.GetString("auth.client_secret"),
		Flow:         c.GetString("auth.flow"),
		Scopes:       scopes,
		TokenFile:    c.GetString("auth.token_file"),
	}, nil
}

// GetSchedule returns the schedule configuration
func (c *Config) GetSchedule() ScheduleConfig {
	return ScheduleConfig{
		Cron:       c.GetString("schedule.cron"),
		RunOnStart: c.GetBool("schedule.run_on_start"),
	}
}

// GetEmailNotify returns the notification mail configuration
func (c *Config) GetEmailNotify() EmailNotifyConfig {
	return EmailNotifyConfig{
		Enabled:  c.GetBool("notify.email.enabled"),
		Address:  c.GetString("notify.email.address"),
		Username: c.GetString("notify.email.username"),
		Password: c.GetString("notify.email.password"),
		From:     c.GetString("notify.email.from"),
		To:       c.GetStringSlice("notify.email.to"),
	}
}

// GetPipeline returns the pipeline options
func (c *Config) GetPipeline() PipelineConfig {
	var exts []string
	for _, e := range c.GetStringSlice("input.extensions") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return PipelineConfig{
		Extensions: exts,
		DedupKey:   strings.ToLower(c.GetString("dedup.key")),
		FirmName:   c.GetString("extraction.firm_name"),
	}
}

// LoggingConfig selects level and encoding of the process logger
type LoggingConfig struct {
	Level  string
	Format string
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(c.GetString("logging.level")),
		Format: strings.ToLower(c.GetString("logging.format")),
	}
}

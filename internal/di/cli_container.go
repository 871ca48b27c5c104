package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/archive"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/factory"
	"github.com/mikey/project-digest/internal/logging"
)

// CLIFlags contains all command line flags for the extraction tool
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIMode      string
	OpenAIBaseURL   string

	// Extraction flags
	FirmName string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 150, "Maximum tokens per field completion")
	fs.Float64Var(&flags.Temperature, "temperature", 0.5, "Temperature for LLM generation")
	fs.Float64Var(&flags.TopP, "top-p", 1.0, "Top-p for LLM generation")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 16384, "Maximum email body size to send to LLM")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-3.5-turbo-instruct", "OpenAI model name")
	fs.StringVar(&flags.OpenAIMode, "openai-mode", "completion", "OpenAI API (completion, chat)")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "OpenAI compatible API base URL")

	fs.StringVar(&flags.FirmName, "firm", "", "Firm name never reported as the client")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input .msg or .eml file (stdin is read as .eml if not specified)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	// flag.CommandLine exits on error
	_ = fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the single-file extraction tool
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExtractionFactory); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register completion service with no cache and no breaker
	if err := container.Provide(func(llmClient core.LLMClient, logger *zap.Logger) *core.CompletionService {
		return core.NewCompletionService(llmClient, nil, logger, core.CompletionServiceConfig{})
	}); err != nil {
		return nil, err
	}

	if err := provideExtraction(container); err != nil {
		return nil, err
	}

	// Any supported archive can be inspected, whatever the batch job accepts
	if err := container.Provide(func(logger *zap.Logger) core.ParserRegistry {
		return archive.NewRegistry([]string{".msg", ".eml"}, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)
	v.Set("completion.max_tokens", flags.MaxTokens)
	v.Set("completion.temperature", flags.Temperature)
	v.Set("completion.max_body_size", flags.MaxBodySize)
	v.Set("extraction.firm_name", flags.FirmName)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.mode", flags.OpenAIMode)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.top_p", flags.TopP)
	}

	return config.NewFromViper(v)
}

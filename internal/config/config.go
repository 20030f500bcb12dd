package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	OpenRouter OpenAIConfig     `yaml:"openrouter" mapstructure:"openrouter"`
	Proxy      OpenAIConfig     `yaml:"proxy" mapstructure:"proxy"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Jira       JiraConfig       `yaml:"jira" mapstructure:"jira"`
	Prompts    PromptsConfig    `yaml:"prompts" mapstructure:"prompts"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analysis database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LLMConfig configures provider selection and fallback behavior.
type LLMConfig struct {
	DefaultProvider    string `yaml:"default_provider" mapstructure:"default_provider"`
	AttemptTimeoutSecs int    `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for any OpenAI-compatible endpoint. The
// same shape serves the openai, openrouter, and proxy provider slots.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina AI Reader settings for web source collection.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JiraConfig holds Jira API settings for ticket source collection.
type JiraConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Email   string `yaml:"email" mapstructure:"email"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// PromptsConfig configures prompt templates.
type PromptsConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	System string `yaml:"system" mapstructure:"system"`
}

// OutputConfig configures report artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// GenerationConfig tunes completion requests.
type GenerationConfig struct {
	MaxTokens   int64    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "analyses.db")
	v.SetDefault("llm.default_provider", "anthropic")
	v.SetDefault("llm.attempt_timeout_secs", 120)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "anthropic/claude-sonnet-4.5")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("prompts.dir", "prompts")
	v.SetDefault("output.dir", "output")
	v.SetDefault("generation.max_tokens", 8192)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Credential keys default to empty so environment-only deployments
	// work without a config file.
	for _, key := range []string{
		"anthropic.key",
		"openai.key", "openai.base_url",
		"openrouter.key",
		"proxy.key", "proxy.base_url", "proxy.model",
		"perplexity.key", "perplexity.base_url",
		"jina.key",
		"jira.base_url", "jira.email", "jira.token",
		"prompts.system",
	} {
		v.SetDefault(key, "")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

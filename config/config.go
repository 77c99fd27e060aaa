package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the LLM interface
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Research  ResearchConfig  `mapstructure:"research"`
	Session   SessionConfig   `mapstructure:"session"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains the language-model provider configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // ollama, openai
	Host        string        `mapstructure:"host"`     // ollama host
	APIKey      string        `mapstructure:"api_key"`  // openai key
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "ollama":
		if c.Host == "" {
			return fmt.Errorf("llm.host is required for the ollama provider")
		}
	case "openai":
		if c.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported llm.provider: %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// ResearchConfig bounds the research loop and drives chat integration
type ResearchConfig struct {
	MaxIterations     int           `mapstructure:"max_iterations"`
	MaxNeeds          int           `mapstructure:"max_needs"`
	MaxSources        int           `mapstructure:"max_sources"`
	MaxResultsPerCall int           `mapstructure:"max_results_per_call"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	ToolTimeout       time.Duration `mapstructure:"tool_timeout"`
	TriggerPrefix     string        `mapstructure:"trigger_prefix"`
	MaxHistory        int           `mapstructure:"max_history"`
	PromptOverrides   string        `mapstructure:"prompt_overrides"`
	DetectionKeywords []string      `mapstructure:"detection_keywords"`
	SourceKeywords    []string      `mapstructure:"source_keywords"`
}

func (c ResearchConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("research.max_iterations must be > 0")
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("research.tool_timeout must be > 0")
	}
	return nil
}

// SessionConfig controls where per-session research context lives
type SessionConfig struct {
	Store string        `mapstructure:"store"` // inmemory, redis
	TTL   time.Duration `mapstructure:"ttl"`
	Redis RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings for the session store
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (c SessionConfig) Validate() error {
	switch c.Store {
	case "inmemory":
		return nil
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("session.redis.host is required for the redis store")
		}
		return nil
	default:
		return fmt.Errorf("unsupported session.store: %q", c.Store)
	}
}

// ToolsConfig contains the capability provider configuration
type ToolsConfig struct {
	SearchProvider string        `mapstructure:"search_provider"` // serper, brave
	SearchAPIKey   string        `mapstructure:"search_api_key"`
	Fetcher        string        `mapstructure:"fetcher"` // http, chromedp
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	FetchMaxChars  int           `mapstructure:"fetch_max_chars"`
	VideoPlatform  string        `mapstructure:"video_platform"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file and environment into a Config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.llm-interface")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("LLMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env vars form a workable config.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Research.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")

	v.SetDefault("server.address", ":8421")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.host", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("research.max_iterations", 5)
	v.SetDefault("research.max_needs", 5)
	v.SetDefault("research.max_sources", 15)
	v.SetDefault("research.max_results_per_call", 5)
	v.SetDefault("research.max_concurrent", 3)
	v.SetDefault("research.tool_timeout", 30*time.Second)
	v.SetDefault("research.trigger_prefix", "/research ")
	v.SetDefault("research.max_history", 50)
	v.SetDefault("research.detection_keywords", []string{
		"research", "you found", "you looked up", "earlier search", "that search",
	})
	v.SetDefault("research.source_keywords", []string{
		"source", "sources", "url", "urls", "link", "links", "where did you find", "citation",
	})

	v.SetDefault("session.store", "inmemory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.redis.port", "6379")
	v.SetDefault("session.redis.timeout", 5*time.Second)

	v.SetDefault("tools.search_provider", "serper")
	v.SetDefault("tools.fetcher", "http")
	v.SetDefault("tools.fetch_timeout", 15*time.Second)
	v.SetDefault("tools.fetch_max_chars", 20000)
	v.SetDefault("tools.video_platform", "youtube")

	v.SetDefault("telemetry.enabled", true)
}

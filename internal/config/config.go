// Package config handles configuration loading for ArthAstra.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds model gateway configuration.
type LLMConfig struct {
	Provider        string   `mapstructure:"provider"          yaml:"provider"` // "gemini" or "ollama"
	GeminiKey       string   `mapstructure:"gemini_key"        yaml:"gemini_key"`
	OllamaURL       string   `mapstructure:"ollama_url"        yaml:"ollama_url"`
	Model           string   `mapstructure:"model"             yaml:"model"`
	FallbackModels  []string `mapstructure:"fallback_models"   yaml:"fallback_models"`
	FallbackDelayMS int      `mapstructure:"fallback_delay_ms" yaml:"fallback_delay_ms"`
	Temperature     float64  `mapstructure:"temperature"       yaml:"temperature"`
	MaxTokens       int      `mapstructure:"max_tokens"        yaml:"max_tokens"`
}

// PipelineConfig holds agent pipeline pacing settings.
type PipelineConfig struct {
	StageDelayMS      int `mapstructure:"stage_delay_ms"      yaml:"stage_delay_ms"`
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// NewsConfig holds lending-news datasource settings.
type NewsConfig struct {
	CacheTTL        int `mapstructure:"cache_ttl"          yaml:"cache_ttl"` // seconds
	RateLimitPerMin int `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min"`
	MaxHeadlines    int `mapstructure:"max_headlines"      yaml:"max_headlines"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.arthastra/config.yaml (home directory)
//  3. /etc/arthastra/config.yaml (system)
//
// Environment variables override config file values.
// Format: ARTHASTRA_<SECTION>_<KEY>, e.g., ARTHASTRA_LLM_GEMINI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".arthastra"))
	v.AddConfigPath("/etc/arthastra")

	v.SetEnvPrefix("ARTHASTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("ARTHASTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.fallback_models", []string{"gemini-2.0-flash-exp"})
	v.SetDefault("llm.fallback_delay_ms", 1000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)

	// Pipeline defaults
	v.SetDefault("pipeline.stage_delay_ms", 1000)
	v.SetDefault("pipeline.request_timeout_sec", 90)

	// News defaults
	v.SetDefault("news.cache_ttl", 600) // 10 minutes
	v.SetDefault("news.rate_limit_per_min", 10)
	v.SetDefault("news.max_headlines", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("ARTHASTRA_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	// Accept the Google SDK's conventional variable too.
	if cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

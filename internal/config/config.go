// Package config provides configuration loading for the invoice extractor.
// Supports YAML files, a .env file, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the model API key.
const APIKeyEnv = "OPENAI_API_KEY"

// Config holds all configuration for the service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	Render        RenderConfig        `yaml:"render"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// LLMConfig holds settings for the hosted model endpoint.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Detail    string `yaml:"detail"`
	// Timeout of zero leaves the HTTP client without a deadline.
	Timeout time.Duration `yaml:"timeout"`
	// APIKey is only read from the environment.
	APIKey string `yaml:"-"`
}

// RenderConfig holds page rasterization settings.
type RenderConfig struct {
	MaxPages int     `yaml:"max_pages"`
	Scale    float64 `yaml:"scale"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path skips the file and uses defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     0,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   32 << 20,
			CORSOrigins:      []string{"*"},
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			MaxTokens: 1500,
			Detail:    "high",
		},
		Render: RenderConfig{
			MaxPages: 5,
			Scale:    2.0,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "invoice-extractor",
		},
	}
}

// Validate checks the configuration for errors. A missing API key is not an
// error here; see MissingRequired.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base_url is required")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}

	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}

	switch c.LLM.Detail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("invalid llm detail: %s", c.LLM.Detail)
	}

	if c.Render.MaxPages < 1 {
		return fmt.Errorf("render max_pages must be at least 1, got %d", c.Render.MaxPages)
	}

	if c.Render.Scale <= 0 {
		return fmt.Errorf("render scale must be positive, got %v", c.Render.Scale)
	}

	return nil
}

// MissingRequired lists the environment variables that must be set before
// extraction requests can succeed.
func (c *Config) MissingRequired() []string {
	var missing []string
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, APIKeyEnv)
	}
	return missing
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ChatCompletionsURL returns the full chat-completions endpoint.
func (c *Config) ChatCompletionsURL() string {
	return strings.TrimRight(c.LLM.BaseURL, "/") + "/chat/completions"
}

func applyEnvOverrides(cfg *Config) error {
	cfg.LLM.APIKey = os.Getenv(APIKeyEnv)

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LLM_MAX_TOKENS: %w", err)
		}
		cfg.LLM.MaxTokens = n
	}

	if v := os.Getenv("MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_PAGES: %w", err)
		}
		cfg.Render.MaxPages = n
	}

	if v := os.Getenv("RENDER_SCALE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RENDER_SCALE: %w", err)
		}
		cfg.Render.Scale = f
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

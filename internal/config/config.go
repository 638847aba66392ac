// ABOUTME: TOML config file loading with environment overrides
// ABOUTME: ~/.nano-go/config.toml; env vars win over file values

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for the runtime knobs.
const (
	DefaultMaxIters        = 10
	DefaultToolResultLimit = 0 // unlimited
)

// Config is the persisted configuration schema.
type Config struct {
	Provider string `toml:"provider"` // anthropic | openai | dashscope
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`

	MaxIters        int  `toml:"max_iters"`
	ToolResultLimit int  `toml:"tool_result_limit"` // display cells; 0 = unlimited
	Verbose         bool `toml:"verbose"`

	SystemPrompt string `toml:"system_prompt"`

	// API keys are normally taken from the environment; the file fields
	// exist for setups where env injection is not available.
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	OpenAIAPIKey    string `toml:"openai_api_key"`
	DashScopeAPIKey string `toml:"dashscope_api_key"`

	Source string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:        "anthropic",
		MaxIters:        DefaultMaxIters,
		ToolResultLimit: DefaultToolResultLimit,
	}
}

// DefaultPath returns ~/.nano-go/config.toml, or "" when HOME is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nano-go", "config.toml")
}

// Load reads the config file at path (DefaultPath when empty) and applies
// environment overrides. A missing file is not an error; the defaults plus
// environment are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		applyEnv(&cfg)
		return cfg, nil
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = DefaultMaxIters
	}
	if cfg.ToolResultLimit < 0 {
		cfg.ToolResultLimit = 0
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHSCOPE_API_KEY")); v != "" {
		cfg.DashScopeAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("NANO_GO_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("NANO_GO_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
}

// APIKey returns the key for the configured provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case "openai":
		return c.OpenAIAPIKey
	case "dashscope":
		return c.DashScopeAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

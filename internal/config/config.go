// Package config handles configuration loading for ralph-loop.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Config holds all configuration for ralph-loop.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Session   SessionConfig   `mapstructure:"session"`
	Models    ModelsConfig    `mapstructure:"models"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings. The API is only used for
// commit message generation; agent sessions go through the Claude CLI.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BedrockConfig routes API calls through AWS Bedrock instead of the
// Anthropic API.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// SessionConfig holds limits for the story loop.
type SessionConfig struct {
	MaxStories          int           `mapstructure:"max_stories"`
	MaxTurnsCreateStory int           `mapstructure:"max_turns_create_story"`
	MaxTurnsDevStory    int           `mapstructure:"max_turns_dev_story"`
	MaxTurnsCodeReview  int           `mapstructure:"max_turns_code_review"`
	MaxReviewRounds     int           `mapstructure:"max_review_rounds"`
	Timeout             time.Duration `mapstructure:"timeout"`
	PauseBetweenStories time.Duration `mapstructure:"pause_between_stories"`
}

// ModelsConfig holds model selection per step. Empty means the CLI default.
type ModelsConfig struct {
	Dev    string `mapstructure:"dev"`
	Review string `mapstructure:"review"`
}

// TUIConfig holds dashboard display settings.
type TUIConfig struct {
	ShowThinking bool          `mapstructure:"show_thinking"`
	RefreshRate  time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.ralph-loop.yaml in current directory or parent)
// 3. User config (~/.config/ralph-loop/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("bedrock.enabled", "CLAUDE_CODE_USE_BEDROCK")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("bedrock.profile", cfg.Bedrock.Profile)
	v.Set("session.max_stories", cfg.Session.MaxStories)
	v.Set("session.max_turns_create_story", cfg.Session.MaxTurnsCreateStory)
	v.Set("session.max_turns_dev_story", cfg.Session.MaxTurnsDevStory)
	v.Set("session.max_turns_code_review", cfg.Session.MaxTurnsCodeReview)
	v.Set("session.max_review_rounds", cfg.Session.MaxReviewRounds)
	v.Set("session.timeout", cfg.Session.Timeout.String())
	v.Set("session.pause_between_stories", cfg.Session.PauseBetweenStories.String())
	v.Set("models.dev", cfg.Models.Dev)
	v.Set("models.review", cfg.Models.Review)
	v.Set("tui.show_thinking", cfg.TUI.ShowThinking)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// SessionConfig converts the loaded configuration into the session
// parameters for a run rooted at projectDir.
func (c *Config) SessionConfig(projectDir string) models.SessionConfig {
	sc := models.DefaultSessionConfig(projectDir)
	if c.Session.MaxStories > 0 {
		sc.MaxStories = c.Session.MaxStories
	}
	if c.Session.MaxTurnsCreateStory > 0 {
		sc.MaxTurnsCS = c.Session.MaxTurnsCreateStory
	}
	if c.Session.MaxTurnsDevStory > 0 {
		sc.MaxTurnsDS = c.Session.MaxTurnsDevStory
	}
	if c.Session.MaxTurnsCodeReview > 0 {
		sc.MaxTurnsCR = c.Session.MaxTurnsCodeReview
	}
	if c.Session.MaxReviewRounds > 0 {
		sc.MaxReviewRounds = c.Session.MaxReviewRounds
	}
	if c.Session.Timeout > 0 {
		sc.SessionTimeout = c.Session.Timeout
	}
	if c.Session.PauseBetweenStories > 0 {
		sc.PauseBetweenStories = c.Session.PauseBetweenStories
	}
	sc.DevModel = c.Models.Dev
	sc.ReviewModel = c.Models.Review
	sc.ShowThinking = c.TUI.ShowThinking
	return sc
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("session.max_stories", 999)
	v.SetDefault("session.max_turns_create_story", 100)
	v.SetDefault("session.max_turns_dev_story", 200)
	v.SetDefault("session.max_turns_code_review", 150)
	v.SetDefault("session.max_review_rounds", 3)
	v.SetDefault("session.timeout", "30m")
	v.SetDefault("session.pause_between_stories", "5s")

	v.SetDefault("models.dev", "")
	v.SetDefault("models.review", "")

	v.SetDefault("tui.show_thinking", false)
	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for ralph-loop.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ralph-loop")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "ralph-loop")
	}
	return filepath.Join(home, ".config", "ralph-loop")
}

// findProjectConfig searches for .ralph-loop.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".ralph-loop.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			MaxStories:          999,
			MaxTurnsCreateStory: 100,
			MaxTurnsDevStory:    200,
			MaxTurnsCodeReview:  150,
			MaxReviewRounds:     3,
			Timeout:             30 * time.Minute,
			PauseBetweenStories: 5 * time.Second,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}

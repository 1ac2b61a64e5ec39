package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mazzeb/bmad-ralph-loop/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify ralph-loop configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/ralph-loop/config.yaml
Project-specific overrides can be placed in .ralph-loop.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values and the config paths.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("bedrock.enabled: %t\n", cfg.Bedrock.Enabled)
	fmt.Printf("bedrock.region: %s\n", cfg.Bedrock.Region)
	fmt.Printf("bedrock.profile: %s\n", cfg.Bedrock.Profile)
	fmt.Printf("session.max_stories: %d\n", cfg.Session.MaxStories)
	fmt.Printf("session.max_turns_create_story: %d\n", cfg.Session.MaxTurnsCreateStory)
	fmt.Printf("session.max_turns_dev_story: %d\n", cfg.Session.MaxTurnsDevStory)
	fmt.Printf("session.max_turns_code_review: %d\n", cfg.Session.MaxTurnsCodeReview)
	fmt.Printf("session.max_review_rounds: %d\n", cfg.Session.MaxReviewRounds)
	fmt.Printf("session.timeout: %s\n", cfg.Session.Timeout)
	fmt.Printf("session.pause_between_stories: %s\n", cfg.Session.PauseBetweenStories)
	fmt.Printf("models.dev: %s\n", cfg.Models.Dev)
	fmt.Printf("models.review: %s\n", cfg.Models.Review)
	fmt.Printf("tui.show_thinking: %t\n", cfg.TUI.ShowThinking)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)

	fmt.Printf("\nuser config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("project config: %s\n", project)
	}
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	if strings.EqualFold(key, "anthropic.api_key") {
		value = config.MaskAPIKey(value)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "bedrock.profile":
		return cfg.Bedrock.Profile, nil
	case "session.max_stories":
		return strconv.Itoa(cfg.Session.MaxStories), nil
	case "session.max_turns_create_story":
		return strconv.Itoa(cfg.Session.MaxTurnsCreateStory), nil
	case "session.max_turns_dev_story":
		return strconv.Itoa(cfg.Session.MaxTurnsDevStory), nil
	case "session.max_turns_code_review":
		return strconv.Itoa(cfg.Session.MaxTurnsCodeReview), nil
	case "session.max_review_rounds":
		return strconv.Itoa(cfg.Session.MaxReviewRounds), nil
	case "session.timeout":
		return cfg.Session.Timeout.String(), nil
	case "session.pause_between_stories":
		return cfg.Session.PauseBetweenStories.String(), nil
	case "models.dev":
		return cfg.Models.Dev, nil
	case "models.review":
		return cfg.Models.Review, nil
	case "tui.show_thinking":
		return strconv.FormatBool(cfg.TUI.ShowThinking), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for bedrock.enabled: %w", err)
		}
		cfg.Bedrock.Enabled = b
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "bedrock.profile":
		cfg.Bedrock.Profile = value
	case "session.max_stories":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_stories: %w", err)
		}
		cfg.Session.MaxStories = n
	case "session.max_turns_create_story":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_turns_create_story: %w", err)
		}
		cfg.Session.MaxTurnsCreateStory = n
	case "session.max_turns_dev_story":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_turns_dev_story: %w", err)
		}
		cfg.Session.MaxTurnsDevStory = n
	case "session.max_turns_code_review":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_turns_code_review: %w", err)
		}
		cfg.Session.MaxTurnsCodeReview = n
	case "session.max_review_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_review_rounds: %w", err)
		}
		cfg.Session.MaxReviewRounds = n
	case "session.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for session.timeout: %w", err)
		}
		cfg.Session.Timeout = d
	case "session.pause_between_stories":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for pause_between_stories: %w", err)
		}
		cfg.Session.PauseBetweenStories = d
	case "models.dev":
		cfg.Models.Dev = value
	case "models.review":
		cfg.Models.Review = value
	case "tui.show_thinking":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for show_thinking: %w", err)
		}
		cfg.TUI.ShowThinking = b
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

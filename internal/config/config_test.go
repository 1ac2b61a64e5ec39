package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Session.MaxStories != 999 {
		t.Errorf("MaxStories = %d, want 999", cfg.Session.MaxStories)
	}
	if cfg.Session.MaxReviewRounds != 3 {
		t.Errorf("MaxReviewRounds = %d, want 3", cfg.Session.MaxReviewRounds)
	}
	if cfg.Session.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", cfg.Session.Timeout)
	}
	if cfg.Session.PauseBetweenStories != 5*time.Second {
		t.Errorf("PauseBetweenStories = %v, want 5s", cfg.Session.PauseBetweenStories)
	}
	if cfg.TUI.ShowThinking {
		t.Error("ShowThinking defaults to true, want false")
	}
}

func TestLoadFromPathOverrides(t *testing.T) {
	path := writeConfig(t, `
session:
  max_stories: 5
  max_turns_dev_story: 50
  max_review_rounds: 2
  timeout: 10m
models:
  dev: claude-sonnet-4-20250514
  review: claude-opus-4-20250514
tui:
  show_thinking: true
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Session.MaxStories != 5 {
		t.Errorf("MaxStories = %d, want 5", cfg.Session.MaxStories)
	}
	if cfg.Session.MaxTurnsDevStory != 50 {
		t.Errorf("MaxTurnsDevStory = %d, want 50", cfg.Session.MaxTurnsDevStory)
	}
	if cfg.Session.Timeout != 10*time.Minute {
		t.Errorf("Timeout = %v, want 10m", cfg.Session.Timeout)
	}
	if cfg.Models.Dev != "claude-sonnet-4-20250514" {
		t.Errorf("Models.Dev = %q", cfg.Models.Dev)
	}
	if !cfg.TUI.ShowThinking {
		t.Error("ShowThinking not picked up")
	}
	// Untouched keys keep their defaults.
	if cfg.Session.MaxTurnsCreateStory != 100 {
		t.Errorf("MaxTurnsCreateStory = %d, want default 100", cfg.Session.MaxTurnsCreateStory)
	}
}

func TestLoadFromPathExpandsAPIKeyEnv(t *testing.T) {
	t.Setenv("TEST_RALPH_KEY", "sk-ant-REDACTED")
	path := writeConfig(t, "anthropic:\n  api_key: ${TEST_RALPH_KEY}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-REDACTED" {
		t.Errorf("APIKey = %q, env reference not expanded", cfg.Anthropic.APIKey)
	}
}

func TestSessionConfigConversion(t *testing.T) {
	cfg := Default()
	cfg.Session.MaxStories = 2
	cfg.Session.MaxReviewRounds = 4
	cfg.Models.Review = "opus"
	cfg.TUI.ShowThinking = true

	sc := cfg.SessionConfig("/tmp/project")

	if sc.ProjectDir != "/tmp/project" {
		t.Errorf("ProjectDir = %q", sc.ProjectDir)
	}
	if sc.MaxStories != 2 {
		t.Errorf("MaxStories = %d, want 2", sc.MaxStories)
	}
	if sc.MaxReviewRounds != 4 {
		t.Errorf("MaxReviewRounds = %d, want 4", sc.MaxReviewRounds)
	}
	if sc.ReviewModel != "opus" {
		t.Errorf("ReviewModel = %q", sc.ReviewModel)
	}
	if !sc.ShowThinking {
		t.Error("ShowThinking not carried over")
	}
	// Zero values in the file never zero out a limit.
	if sc.MaxTurnsDS != 200 {
		t.Errorf("MaxTurnsDS = %d, want default 200", sc.MaxTurnsDS)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"
	cfg.Session.MaxStories = 7
	cfg.Session.Timeout = 15 * time.Minute
	cfg.Models.Dev = "sonnet"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := GetUserConfigPath()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved config missing at %s: %v", path, err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Anthropic.APIKey != cfg.Anthropic.APIKey {
		t.Errorf("APIKey = %q, want %q", loaded.Anthropic.APIKey, cfg.Anthropic.APIKey)
	}
	if loaded.Session.MaxStories != 7 {
		t.Errorf("MaxStories = %d, want 7", loaded.Session.MaxStories)
	}
	if loaded.Session.Timeout != 15*time.Minute {
		t.Errorf("Timeout = %v, want 15m", loaded.Session.Timeout)
	}
	if loaded.Models.Dev != "sonnet" {
		t.Errorf("Models.Dev = %q, want sonnet", loaded.Models.Dev)
	}
}

func TestGetAPIKeyPrefersEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env-1234567890")
	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if key != "sk-ant-from-env-1234567890" {
		t.Errorf("key = %q, want the environment value", key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := GetAPIKey(Default()); err != ErrNoAPIKey {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"sk-ant-short", "***"},
		{"sk-ant-REDACTED", "sk-ant-...1234"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

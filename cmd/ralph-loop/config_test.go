package main

import (
	"strings"
	"testing"
	"time"

	"github.com/mazzeb/bmad-ralph-loop/internal/config"
)

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		key   string
		value string
		check func() bool
	}{
		{"anthropic.api_key", "sk-ant-test", func() bool { return cfg.Anthropic.APIKey == "sk-ant-test" }},
		{"bedrock.enabled", "true", func() bool { return cfg.Bedrock.Enabled }},
		{"session.max_stories", "12", func() bool { return cfg.Session.MaxStories == 12 }},
		{"session.timeout", "45m", func() bool { return cfg.Session.Timeout == 45*time.Minute }},
		{"models.dev", "sonnet", func() bool { return cfg.Models.Dev == "sonnet" }},
		{"tui.show_thinking", "true", func() bool { return cfg.TUI.ShowThinking }},
	}
	for _, tt := range tests {
		if err := setConfigValue(cfg, tt.key, tt.value); err != nil {
			t.Errorf("setConfigValue(%s, %s): %v", tt.key, tt.value, err)
			continue
		}
		if !tt.check() {
			t.Errorf("setConfigValue(%s, %s) did not apply", tt.key, tt.value)
		}
	}
}

func TestSetConfigValueRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	if err := setConfigValue(cfg, "session.max_stories", "lots"); err == nil {
		t.Error("non-numeric max_stories accepted")
	}
	if err := setConfigValue(cfg, "session.timeout", "soon"); err == nil {
		t.Error("non-duration timeout accepted")
	}
	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestGetConfigValueMasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if strings.Contains(got, "abcdefghijklmnop") {
		t.Errorf("API key not masked: %q", got)
	}
	if got != config.MaskAPIKey(cfg.Anthropic.APIKey) {
		t.Errorf("got %q, want masked form", got)
	}
}

func TestGetConfigValueUnknownKey(t *testing.T) {
	if _, err := getConfigValue(config.Default(), "quality_gates.test"); err == nil {
		t.Error("unknown key accepted")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesOrchestratorDefaults(t *testing.T) {
	t.Setenv("DEFAULT_AGENT", "")
	t.Setenv("AGENT_TIMEOUT_SECONDS", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("COMPUTER_USE_ENABLED", "")
	t.Setenv("COMPUTER_USE_SAFETY_MODE", "")

	cfg := Load()
	if cfg.DefaultAgent != "knowledge" {
		t.Fatalf("expected default agent knowledge, got %q", cfg.DefaultAgent)
	}
	if cfg.AgentTimeoutSec != 45 {
		t.Fatalf("expected default agent timeout 45, got %d", cfg.AgentTimeoutSec)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected default per-minute limit 60, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected default rps 50, got %d", cfg.APIRateLimitRPS)
	}
	if cfg.ComputerUseEnabled {
		t.Fatalf("computer use must default to disabled")
	}
	if !cfg.ComputerUseSafetyMode {
		t.Fatalf("safety mode must default to enabled")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DEFAULT_AGENT", "reasoning")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("COMPUTER_USE_ENABLED", "true")

	cfg := Load()
	if cfg.DefaultAgent != "reasoning" {
		t.Fatalf("expected default agent override, got %q", cfg.DefaultAgent)
	}
	if cfg.RateLimitPerMinute != 5 {
		t.Fatalf("expected per-minute limit 5, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.OpenAITemperature != 0.2 {
		t.Fatalf("expected temperature 0.2, got %f", cfg.OpenAITemperature)
	}
	if !cfg.ComputerUseEnabled {
		t.Fatalf("expected computer use enabled")
	}
}

func TestLoadAgentProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	payload := []byte(`
agents:
  code:
    model: gpt-4o
    temperature: 0.1
    max_tokens: 8192
  reasoning:
    temperature: 0.9
`)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write profiles: %v", err)
	}

	profiles, err := LoadAgentProfiles(path)
	if err != nil {
		t.Fatalf("LoadAgentProfiles() error = %v", err)
	}
	if profiles["code"].Model != "gpt-4o" || profiles["code"].MaxTokens != 8192 {
		t.Fatalf("unexpected code profile %+v", profiles["code"])
	}
	if profiles["reasoning"].Temperature != 0.9 {
		t.Fatalf("unexpected reasoning profile %+v", profiles["reasoning"])
	}
}

func TestLoadAgentProfilesEmptyPath(t *testing.T) {
	profiles, err := LoadAgentProfiles("")
	if err != nil {
		t.Fatalf("LoadAgentProfiles() error = %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected empty profiles, got %+v", profiles)
	}
}

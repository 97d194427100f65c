package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514",
				"auth": {
					"api_key": "${{ .Env.ANTHROPIC_API_KEY }}",
				},
				"max_tokens": 4096,
				"timeout": "30s",
			},
		},
	},
	"control": {"enabled": true, "port": 9999},
}`
	path := writeConfig(t, content)
	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %s", cfg.Models.Default)
	}
	p, ok := cfg.Models.Providers["claude"]
	if !ok {
		t.Fatal("expected claude provider")
	}
	if p.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", p.Auth.APIKey)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", p.MaxTokens)
	}
	if p.Timeout.Duration().Seconds() != 30 {
		t.Errorf("expected 30s timeout, got %s", p.Timeout.Duration())
	}
	if p.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", p.MaxRetries)
	}
	if !cfg.Control.Enabled || cfg.Control.Port != 9999 {
		t.Errorf("unexpected control config %+v", cfg.Control)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIDEKICK_PATH", "/tmp/sidekick-test")
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Models.Default != "bedrock" {
		t.Errorf("expected default provider bedrock, got %s", cfg.Models.Default)
	}
	p, ok := cfg.DefaultProvider()
	if !ok {
		t.Fatal("expected default bedrock provider")
	}
	if p.Model != DefaultBedrockModel || p.Region != "us-east-1" {
		t.Errorf("unexpected bedrock defaults: %+v", p)
	}
	if cfg.Control.Host != "127.0.0.1" || cfg.Control.Port != DefaultControlPort {
		t.Errorf("unexpected control defaults: %+v", cfg.Control)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Prompts.File != "/tmp/sidekick-test/modes.yaml" {
		t.Errorf("unexpected prompts file %q", cfg.Prompts.File)
	}
	if cfg.Sessions.Dir != "/tmp/sidekick-test/sessions" {
		t.Errorf("unexpected sessions dir %q", cfg.Sessions.Dir)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Capture.MinImageBytes != DefaultMinImageBytes {
		t.Errorf("expected default min image bytes, got %d", cfg.Capture.MinImageBytes)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Models.Default != "bedrock" {
		t.Errorf("expected bedrock default, got %s", cfg.Models.Default)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIDEKICK_MODEL", "anthropic.claude-3-haiku")
	t.Setenv("SIDEKICK_REGION", "eu-west-1")
	t.Setenv("SIDEKICK_PROFILE", "saml")
	t.Setenv("SIDEKICK_SAVE_DIR", "/tmp/notes")
	t.Setenv("SIDEKICK_CONTROL_PORT", "7000")

	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := cfg.DefaultProvider()
	if p.Model != "anthropic.claude-3-haiku" || p.Region != "eu-west-1" || p.Profile != "saml" {
		t.Errorf("env overrides not applied: %+v", p)
	}
	if cfg.Transcript.Dir != "/tmp/notes" {
		t.Errorf("expected save dir override, got %q", cfg.Transcript.Dir)
	}
	if cfg.Control.Port != 7000 {
		t.Errorf("expected control port 7000, got %d", cfg.Control.Port)
	}
}

func TestLoad_EnvProviderSwitch(t *testing.T) {
	t.Setenv("SIDEKICK_PROVIDER", "ollama")
	t.Setenv("SIDEKICK_MODEL", "llava")

	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}
	p, ok := cfg.DefaultProvider()
	if !ok || p.Driver != "ollama" || p.Model != "llava" {
		t.Errorf("expected ollama provider with llava model, got %+v (ok=%v)", p, ok)
	}
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	content := `{
	"models": {
		"default": "missing",
		"providers": {
			"x": {"driver": "teleport"},
		},
	},
	"log": {"level": "loud"},
}`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{`default provider "missing"`, `unknown driver "teleport"`, `unknown log level "loud"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got %s", want, msg)
		}
	}
}

func TestLoad_BlankCaptureCommands(t *testing.T) {
	content := `{
	"models": {
		"default": "bedrock",
		"providers": {"bedrock": {"driver": "bedrock", "model": "m"}},
	},
	"capture": {"screen_command": "   ", "region_command": "\t"},
}`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"capture.screen_command is blank", "capture.region_command is blank"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %s", want, err)
		}
	}
}

func TestLoad_InvalidJSONC(t *testing.T) {
	if _, err := Load(writeConfig(t, `{"models": `)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}

package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/secrets"
)

func TestResolveAuth_DirectAPIKey(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "anthropic",
		Auth:   config.AuthConfig{APIKey: "sk-ant-test-123"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Fatalf("expected AuthAPIKey, got %d", auth.Kind)
	}
	if auth.Value != "sk-ant-test-123" {
		t.Fatalf("expected value %q, got %q", "sk-ant-test-123", auth.Value)
	}
}

func TestResolveAuth_DirectBearerToken(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "anthropic",
		Auth: config.AuthConfig{
			APIKey: "sk-ant-test-123",
			Token:  "bearer-token-xyz",
		},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	// Bearer token takes priority over API key
	if auth.Kind != AuthBearerToken {
		t.Fatalf("expected AuthBearerToken, got %d", auth.Kind)
	}
	if auth.Value != "bearer-token-xyz" {
		t.Fatalf("expected value %q, got %q", "bearer-token-xyz", auth.Value)
	}
}

func TestResolveAuth_EncryptedEnv(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), ".age-key")
	sealed, err := secrets.Seal("sk-ant-sealed", keyPath)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	t.Setenv("ANTHROPIC_API_KEY", sealed)

	auth, err := resolveAuth(config.ProviderConfig{Driver: "anthropic"}, keyPath)
	if err != nil {
		t.Fatalf("resolveAuth: %v", err)
	}
	if auth.Value != "sk-ant-sealed" {
		t.Fatalf("expected decrypted key, got %q", auth.Value)
	}
}

func TestResolveAuth_EncryptedWithoutKey(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "ENC[age:Zm9v]"},
	}
	_, err := resolveAuth(cfg, filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "decrypt openai credentials") {
		t.Fatalf("expected decrypt error, got %v", err)
	}
}

func TestResolveAuth_EnvVarSyntax(t *testing.T) {
	t.Setenv("MY_CUSTOM_KEY", "custom-api-key-value")

	cfg := config.ProviderConfig{
		Driver: "anthropic",
		Auth:   config.AuthConfig{APIKey: "${MY_CUSTOM_KEY}"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Fatalf("expected AuthAPIKey, got %d", auth.Kind)
	}
	if auth.Value != "custom-api-key-value" {
		t.Fatalf("expected value %q, got %q", "custom-api-key-value", auth.Value)
	}
}

func TestResolveAuth_FallbackAnthropicEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic-key")

	cfg := config.ProviderConfig{Driver: "anthropic"}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Fatalf("expected AuthAPIKey, got %d", auth.Kind)
	}
	if auth.Value != "env-anthropic-key" {
		t.Fatalf("expected value %q, got %q", "env-anthropic-key", auth.Value)
	}
}

func TestResolveAuth_FallbackOpenAIEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-openai-key")

	cfg := config.ProviderConfig{Driver: "openai"}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Fatalf("expected AuthAPIKey, got %d", auth.Kind)
	}
	if auth.Value != "env-openai-key" {
		t.Fatalf("expected value %q, got %q", "env-openai-key", auth.Value)
	}
}

func TestResolveAuth_FallbackGeminiEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")

	auth, err := ResolveAuth(config.ProviderConfig{Driver: "gemini"})
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "env-gemini-key" {
		t.Fatalf("expected value %q, got %q", "env-gemini-key", auth.Value)
	}
}

func TestResolveAuth_UnknownDriver(t *testing.T) {
	// Bedrock authenticates through the AWS credential chain, not here.
	cfg := config.ProviderConfig{Driver: "bedrock"}
	_, err := ResolveAuth(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestResolveAuth_NothingSet(t *testing.T) {
	// Clear all env vars
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("ANTHROPIC_API_KEY")

	cfg := config.ProviderConfig{Driver: "anthropic"}
	_, err := ResolveAuth(cfg)
	if err == nil {
		t.Fatal("expected error when no auth is available")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY not set") {
		t.Fatalf("expected 'ANTHROPIC_API_KEY not set' error, got %v", err)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	cfg := config.ModelsConfig{
		Default:   "main",
		Providers: map[string]config.ProviderConfig{},
	}
	reg := NewRegistry(cfg)

	_, err := reg.Get(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected 'not found' error, got %v", err)
	}
}

func TestRegistry_DefaultName(t *testing.T) {
	cfg := config.ModelsConfig{
		Default: "claude-main",
		Providers: map[string]config.ProviderConfig{
			"claude-main": {Driver: "anthropic"},
		},
	}
	reg := NewRegistry(cfg)

	if reg.DefaultName() != "claude-main" {
		t.Fatalf("expected default name %q, got %q", "claude-main", reg.DefaultName())
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.ProviderConfig{Driver: "unknown-driver"}
	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestNew_MissingKey(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	_, err := New(context.Background(), config.ProviderConfig{Driver: "openai"})
	if err == nil {
		t.Fatal("expected error when no key is available")
	}
	if !strings.Contains(err.Error(), "resolve auth") {
		t.Fatalf("expected 'resolve auth' error, got %v", err)
	}
}

func TestRegistry_LazyInitOnce(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{
		Default: "main",
		Providers: map[string]config.ProviderConfig{
			"main":  {Driver: "bedrock"},
			"local": {Driver: "ollama"},
		},
	})

	calls := 0
	reg.factory = func(_ context.Context, cfg config.ProviderConfig) (Gateway, error) {
		calls++
		return &scriptedGateway{name: cfg.Driver}, nil
	}

	for range 3 {
		gw, err := reg.Default(context.Background())
		if err != nil {
			t.Fatalf("Default: %v", err)
		}
		if gw.Name() != "bedrock" {
			t.Fatalf("expected bedrock gateway, got %q", gw.Name())
		}
	}
	if calls != 1 {
		t.Fatalf("expected factory to run once, ran %d times", calls)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "local" || names[1] != "main" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegistry_NoDefault(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{})
	if _, err := reg.Default(context.Background()); err == nil {
		t.Fatal("expected error without a default provider")
	}
}

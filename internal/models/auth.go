package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/secrets"
)

// AuthKind distinguishes between API key and Bearer token auth.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
	AuthBearerToken
)

// ResolvedAuth holds the resolved credentials and their kind.
type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// driverKeyEnv names the fallback environment variable per key-based driver.
var driverKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ResolveAuth resolves the credentials for a key-based provider.
// Resolution order: direct token, direct api_key, driver default env.
// ENC[age:...] values are decrypted with the key at secrets.KeyPath().
// Bedrock and Ollama do not go through here: AWS uses its shared credential chain.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	return resolveAuth(cfg, secrets.KeyPath())
}

func resolveAuth(cfg config.ProviderConfig, keyPath string) (ResolvedAuth, error) {
	resolve := func(token string) string {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			return ""
		}
		if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
			return os.Getenv(trimmed[2 : len(trimmed)-1])
		}
		return trimmed
	}

	reveal := func(kind AuthKind, v string) (ResolvedAuth, error) {
		plain, err := secrets.Reveal(v, keyPath)
		if err != nil {
			return ResolvedAuth{}, fmt.Errorf("decrypt %s credentials: %w", cfg.Driver, err)
		}
		return ResolvedAuth{Kind: kind, Value: plain}, nil
	}

	if token := resolve(cfg.Auth.Token); token != "" {
		return reveal(AuthBearerToken, token)
	}

	if apiKey := resolve(cfg.Auth.APIKey); apiKey != "" {
		return reveal(AuthAPIKey, apiKey)
	}

	envName, ok := driverKeyEnv[strings.ToLower(cfg.Driver)]
	if !ok {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	if key := os.Getenv(envName); key != "" {
		return reveal(AuthAPIKey, key)
	}
	return ResolvedAuth{}, fmt.Errorf("%s not set", envName)
}

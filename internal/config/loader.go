package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/tailscale/hujson"
)

const (
	DefaultProviderName  = "bedrock"
	DefaultBedrockModel  = "us.anthropic.claude-haiku-4-5-20251001-v1:0"
	DefaultBedrockRegion = "us-east-1"
	DefaultControlPort   = 18421
	DefaultMinImageBytes = 1024
)

var knownDrivers = map[string]bool{
	"bedrock":   true,
	"anthropic": true,
	"openai":    true,
	"mistral":   true,
	"ollama":    true,
	"gemini":    true,
}

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// overrides are applied on top of the file after defaults.
type overrides struct {
	Provider    string `env:"SIDEKICK_PROVIDER"`
	Model       string `env:"SIDEKICK_MODEL"`
	Region      string `env:"SIDEKICK_REGION"`
	Profile     string `env:"SIDEKICK_PROFILE"`
	SaveDir     string `env:"SIDEKICK_SAVE_DIR"`
	ControlPort int    `env:"SIDEKICK_CONTROL_PORT"`
	LogLevel    string `env:"SIDEKICK_LOG_LEVEL"`
}

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, applies defaults and environment overrides, then validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

// LoadOrDefault behaves like Load but returns the default config when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return parse([]byte(`{}`))
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Models.Providers == nil {
		cfg.Models.Providers = map[string]ProviderConfig{}
	}
	if cfg.Models.Default == "" {
		cfg.Models.Default = DefaultProviderName
	}
	if _, ok := cfg.Models.Providers[DefaultProviderName]; !ok && cfg.Models.Default == DefaultProviderName {
		cfg.Models.Providers[DefaultProviderName] = ProviderConfig{
			Driver: "bedrock",
			Model:  DefaultBedrockModel,
			Region: DefaultBedrockRegion,
		}
	}
	for name, p := range cfg.Models.Providers {
		if p.Driver == "" {
			p.Driver = name
		}
		if p.MaxRetries <= 0 {
			p.MaxRetries = 3
		}
		if p.Driver == "bedrock" && p.Region == "" {
			p.Region = DefaultBedrockRegion
		}
		cfg.Models.Providers[name] = p
	}

	if cfg.Prompts.File == "" {
		cfg.Prompts.File = filepath.Join(DataPath(), "modes.yaml")
	}
	if cfg.Capture.MinImageBytes == 0 {
		cfg.Capture.MinImageBytes = DefaultMinImageBytes
	}
	if cfg.Control.Host == "" {
		cfg.Control.Host = "127.0.0.1"
	}
	if cfg.Control.Port == 0 {
		cfg.Control.Port = DefaultControlPort
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Events.LogDir == "" {
		cfg.Events.LogDir = filepath.Join(DataPath(), "events")
	}
	if cfg.Transcript.Dir == "" {
		cfg.Transcript.Dir = xdg.UserDirs.Desktop
	}
	if cfg.Sessions.Dir == "" {
		cfg.Sessions.Dir = filepath.Join(DataPath(), "sessions")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(DataPath(), "sidekick.log")
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}

// applyEnv overlays SIDEKICK_* environment variables on the default provider.
func applyEnv(cfg *Config) error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}

	if o.Provider != "" {
		cfg.Models.Default = o.Provider
		if _, ok := cfg.Models.Providers[o.Provider]; !ok && knownDrivers[o.Provider] {
			cfg.Models.Providers[o.Provider] = ProviderConfig{Driver: o.Provider, MaxRetries: 3}
		}
	}
	if p, ok := cfg.Models.Providers[cfg.Models.Default]; ok {
		if o.Model != "" {
			p.Model = o.Model
		}
		if o.Region != "" {
			p.Region = o.Region
		}
		if o.Profile != "" {
			p.Profile = o.Profile
		}
		cfg.Models.Providers[cfg.Models.Default] = p
	}
	if o.SaveDir != "" {
		cfg.Transcript.Dir = o.SaveDir
	}
	if o.ControlPort != 0 {
		cfg.Control.Port = o.ControlPort
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	return nil
}

// blankOverride is true for a command that is set but holds only whitespace.
func blankOverride(cmd string) bool {
	return cmd != "" && strings.TrimSpace(cmd) == ""
}

// Validate reports every problem found in cfg at once.
func Validate(cfg *Config) error {
	var result *multierror.Error

	if _, ok := cfg.Models.Providers[cfg.Models.Default]; !ok {
		result = multierror.Append(result, fmt.Errorf("default provider %q is not configured", cfg.Models.Default))
	}
	for name, p := range cfg.Models.Providers {
		if !knownDrivers[strings.ToLower(p.Driver)] {
			result = multierror.Append(result, fmt.Errorf("provider %q: unknown driver %q", name, p.Driver))
		}
		if p.MaxTokens < 0 {
			result = multierror.Append(result, fmt.Errorf("provider %q: max_tokens must be positive", name))
		}
	}
	if cfg.Control.Port < 0 || cfg.Control.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("control port %d out of range", cfg.Control.Port))
	}
	if cfg.Capture.MinImageBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("capture.min_image_bytes must be positive"))
	}
	if blankOverride(cfg.Capture.ScreenCommand) {
		result = multierror.Append(result, fmt.Errorf("capture.screen_command is blank"))
	}
	if blankOverride(cfg.Capture.RegionCommand) {
		result = multierror.Append(result, fmt.Errorf("capture.region_command is blank"))
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown log level %q", cfg.Log.Level))
	}

	return result.ErrorOrNil()
}

// Package config loads the sidekick configuration file and environment.
package config

import "time"

// Config is the root configuration for sidekick.
type Config struct {
	Models     ModelsConfig     `json:"models"`
	Prompts    PromptsConfig    `json:"prompts"`
	Capture    CaptureConfig    `json:"capture"`
	Control    ControlConfig    `json:"control"`
	Events     EventsConfig     `json:"events"`
	Transcript TranscriptConfig `json:"transcript"`
	Sessions   SessionsConfig   `json:"sessions"`
	Log        LogConfig        `json:"log"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver     string         `json:"driver"` // "bedrock", "anthropic", "openai", "mistral", "ollama", "gemini"
	Model      string         `json:"model"`
	BaseURL    string         `json:"base_url,omitempty"`
	Region     string         `json:"region,omitempty"`  // bedrock only
	Profile    string         `json:"profile,omitempty"` // bedrock only
	Auth       AuthConfig     `json:"auth"`
	MaxTokens  int            `json:"max_tokens,omitempty"`
	MaxRetries int            `json:"max_retries,omitempty"`
	Timeout    Duration       `json:"timeout,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${{ .Env.VAR }} template
	Token  string `json:"token,omitempty"`   // Bearer token
}

// PromptsConfig points at the optional modes override file.
type PromptsConfig struct {
	File        string `json:"file"`
	DefaultMode string `json:"default_mode,omitempty"`
}

// CaptureConfig configures screen and clipboard capture.
type CaptureConfig struct {
	ScreenCommand string `json:"screen_command,omitempty"` // overrides tool detection; "{file}" is replaced by the output path
	RegionCommand string `json:"region_command,omitempty"` // interactive selection, same placeholders
	MinImageBytes int    `json:"min_image_bytes"`
}

// ControlConfig configures the local trigger server.
type ControlConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size"`
	LogDir     string `json:"log_dir"` // JSONL event log, one file per session
}

// TranscriptConfig configures where saved transcripts go.
type TranscriptConfig struct {
	Dir string `json:"dir"`
}

// SessionsConfig configures exchange history persistence.
type SessionsConfig struct {
	Dir      string `json:"dir"`
	Disabled bool   `json:"disabled,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// DefaultProvider returns the provider selected by Models.Default.
func (c *Config) DefaultProvider() (ProviderConfig, bool) {
	p, ok := c.Models.Providers[c.Models.Default]
	return p, ok
}

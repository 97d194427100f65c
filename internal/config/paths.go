package config

import (
	"os"
	"path/filepath"
)

// DataPath returns the root directory for sidekick data.
// It uses $SIDEKICK_PATH if set, otherwise defaults to ~/.sidekick.
func DataPath() string {
	if v := os.Getenv("SIDEKICK_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".sidekick")
	}
	return filepath.Join(home, ".sidekick")
}

// ConfigPath returns the path to the sidekick config file.
func ConfigPath() string {
	return filepath.Join(DataPath(), "config.jsonc")
}

// DotenvPath returns the path to the sidekick .env file.
func DotenvPath() string {
	return filepath.Join(DataPath(), ".env")
}

// HeartbeatPath returns the path of the running assistant's heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(DataPath(), "heartbeat.json")
}

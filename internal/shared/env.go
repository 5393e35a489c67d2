package shared

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvBackendURL = "SPOTIBABY_BACKEND_URL"
	EnvDeviceName = "SPOTIBABY_DEVICE_NAME"
	EnvDBPath     = "SPOTIBABY_DB_PATH"
	EnvLogLevel   = "SPOTIBABY_LOG_LEVEL"
)

// LoadEnv loads variables from the given .env files into the process environment.
//
// Existing variables are never overridden. A missing file is not an error.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides config values with any SPOTIBABY_* variables that are set.
func ApplyEnv(c *Config) {
	if v, ok := os.LookupEnv(EnvBackendURL); ok && v != "" {
		c.Backend.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvDeviceName); ok && v != "" {
		c.Player.Name = v
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

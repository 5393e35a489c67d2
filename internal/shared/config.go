package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Player   PlayerConfig   `toml:"player"`
	Engine   EngineConfig   `toml:"engine"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// BackendConfig contains settings for the token-issuing backend service.
type BackendConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables pacing
	Timeout   string  `toml:"timeout"`
}

// PlayerConfig contains playback session settings.
type PlayerConfig struct {
	Name           string  `toml:"name"`
	Volume         float64 `toml:"volume"`
	PollInterval   string  `toml:"poll_interval"`
	HealthInterval string  `toml:"health_interval"`
}

// EngineConfig contains provider Web API settings for the Connect device engine.
type EngineConfig struct {
	APIURL        string `toml:"api_url"`
	WatchInterval string `toml:"watch_interval"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local login callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TimeoutDuration returns the backend request timeout, defaulting to 10 seconds.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return parseDuration(b.Timeout, 10*time.Second)
}

// PollEvery returns the playback state poll interval.
func (p PlayerConfig) PollEvery() time.Duration {
	return parseDuration(p.PollInterval, time.Second)
}

// HealthEvery returns the engine health check interval.
func (p PlayerConfig) HealthEvery() time.Duration {
	return parseDuration(p.HealthInterval, 5*time.Second)
}

// WatchEvery returns the interval at which the engine watches the device for changes.
func (e EngineConfig) WatchEvery() time.Duration {
	return parseDuration(e.WatchInterval, time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Theme   ThemeConfig   `toml:"theme"`
	Display DisplayConfig `toml:"display"`
}

// ServerConfig holds the serve command settings
type ServerConfig struct {
	Bind     string   `toml:"bind"`
	LogRoots []string `toml:"log_roots"`
	LogLevel string   `toml:"log_level"`
}

// ThemeConfig defines color schemes
type ThemeConfig struct {
	Name      string         `toml:"name"`
	StatusBar string         `toml:"status_bar"`
	Match     string         `toml:"match"`
	Noise     string         `toml:"noise"`
	Timestamp string         `toml:"timestamp"`
	Target    string         `toml:"target"`
	Levels    LogLevelColors `toml:"levels"`
}

// LogLevelColors defines colors for each log level
type LogLevelColors struct {
	Trace string `toml:"trace"`
	Debug string `toml:"debug"`
	Info  string `toml:"info"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
}

// DisplayConfig holds display options
type DisplayConfig struct {
	Cols            int  `toml:"cols"`
	ShowLineNumbers bool `toml:"show_line_numbers"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:     "127.0.0.1:9000",
			LogRoots: []string{"."},
			LogLevel: "info",
		},
		Theme: ThemeConfig{
			Name:      "subtle",
			StatusBar: "236", // Darker gray background
			Match:     "226", // Yellow
			Noise:     "240", // Dark gray
			Timestamp: "244", // Medium gray
			Target:    "109", // Muted blue
			Levels: LogLevelColors{
				Trace: "240", // Dark gray
				Debug: "244", // Medium gray
				Info:  "250", // Light gray (default)
				Warn:  "214", // Orange
				Error: "167", // Soft red
			},
		},
		Display: DisplayConfig{
			Cols:            120,
			ShowLineNumbers: true,
		},
	}
}

// Load loads config from file, falling back to defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	configPath := getConfigPath()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := getConfigPath()
	if configPath == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "logterm", "config.toml")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "logterm", "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}

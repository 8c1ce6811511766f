package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const dirName = ".irontodo"

// Config holds user preferences and API settings
type Config struct {
	APIURL       string        `yaml:"api_url" json:"api_url"`               // Base URL of the versioned REST API
	APITimeout   time.Duration `yaml:"api_timeout" json:"api_timeout"`       // Per-request timeout
	ClientID     string        `yaml:"client_id" json:"client_id"`           // OAuth2 client id sent on login
	ClientSecret string        `yaml:"client_secret" json:"client_secret"`   // OAuth2 client secret sent on login
	Scope        string        `yaml:"scope" json:"scope"`                   // OAuth2 scope sent on login
	StoragePath  string        `yaml:"storage_path" json:"storage_path"`     // Local state database
	StorageKey   string        `yaml:"-" json:"-"`                           // Passphrase sealing the token at rest (env only)
	Theme        string        `yaml:"theme" json:"theme"`                   // light or dark
	UndoWindow   time.Duration `yaml:"undo_window" json:"undo_window"`       // How long a deleted todo can be restored
	Confirm      bool          `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete
	PageSizes    PageSizes     `yaml:"page_sizes" json:"page_sizes"`         // Items per page per resource
	Prefetch     bool          `yaml:"prefetch" json:"prefetch"`             // Warm adjacent pages after each fetch

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// PageSizes holds the fixed page size of each list
type PageSizes struct {
	Todos      int `yaml:"todos" json:"todos"`
	Priorities int `yaml:"priorities" json:"priorities"`
	Statuses   int `yaml:"statuses" json:"statuses"`
}

// Dir returns ~/.irontodo
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath := ""
	storagePath := ""
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "irontodo.log")
		storagePath = filepath.Join(dir, "state.db")
	}

	return &Config{
		APIURL:      getEnv("IRONTODO_API_URL", "http://0.0.0.0:8000/api/v1"),
		APITimeout:  getDurationEnv("IRONTODO_API_TIMEOUT", 10*time.Second),
		StoragePath: getEnv("IRONTODO_STORAGE_PATH", storagePath),
		StorageKey:  os.Getenv("IRONTODO_STORAGE_KEY"),
		Theme:       "dark",
		UndoWindow:  30 * time.Second,
		Confirm:     true,
		Prefetch:    true,
		PageSizes: PageSizes{
			Todos:      10,
			Priorities: 10,
			Statuses:   50,
		},
		LogLevel:   getEnv("IRONTODO_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("IRONTODO_LOG_FILE", logPath),
		LogConsole: getEnv("IRONTODO_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts either a Go duration ("15s") or plain milliseconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

// Path returns the config file path
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.irontodo/config.yaml
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads config from path, returning defaults when it does not exist
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment wins over the file for the API location
	if v := os.Getenv("IRONTODO_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if os.Getenv("IRONTODO_API_TIMEOUT") != "" {
		cfg.APITimeout = getDurationEnv("IRONTODO_API_TIMEOUT", cfg.APITimeout)
	}

	cfg.fillZeroes()
	return cfg, nil
}

// fillZeroes restores defaults for values a partial file left empty
func (c *Config) fillZeroes() {
	def := DefaultConfig()
	if c.APIURL == "" {
		c.APIURL = def.APIURL
	}
	if c.APITimeout <= 0 {
		c.APITimeout = def.APITimeout
	}
	if c.UndoWindow <= 0 {
		c.UndoWindow = def.UndoWindow
	}
	if c.PageSizes.Todos <= 0 {
		c.PageSizes.Todos = def.PageSizes.Todos
	}
	if c.PageSizes.Priorities <= 0 {
		c.PageSizes.Priorities = def.PageSizes.Priorities
	}
	if c.PageSizes.Statuses <= 0 {
		c.PageSizes.Statuses = def.PageSizes.Statuses
	}
}

// Save saves config to ~/.irontodo/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

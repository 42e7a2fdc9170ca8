package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AppName     = "myyntiapuri"
	EnvFileName = "config.env"
)

// Config holds the settings of the relay server and the listing driver.
type Config struct {
	// Provider
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Server
	Port        string
	Environment string

	// Driver
	RelayURL     string
	DBPath       string
	Language     string
	ListingCache bool
}

// Load reads the configuration from the environment. A missing API key is
// not an error here; the relay reports it per request.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		RelayURL:     getEnv("RELAY_URL", "http://localhost:8080"),
		DBPath:       getEnv("MYYNTIAPURI_DB_PATH", "myyntiapuri.db"),
		Language:     getEnv("LISTING_LANGUAGE", "fi"),
		ListingCache: isTruthy(os.Getenv("LISTING_CACHE")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that have a fixed set of options.
func (c *Config) Validate() error {
	switch c.Language {
	case "fi", "en":
	default:
		return fmt.Errorf("LISTING_LANGUAGE must be fi or en, got %q", c.Language)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ConfigDir returns the application's config directory path, creating it
// if needed.
func ConfigDir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// FilePath returns the full path to the env file.
func FilePath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment take precedence.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// WriteEnvFile merges values into the config file and returns its path.
// The file is written with 0600 permissions since it holds secrets.
func WriteEnvFile(values map[string]string) (string, error) {
	configPath, err := FilePath()
	if err != nil {
		return "", err
	}

	existing, err := godotenv.Read(configPath)
	if err != nil {
		existing = map[string]string{}
	}
	for k, v := range values {
		existing[k] = v
	}

	content, err := godotenv.Marshal(existing)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(content+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(configPath, 0600); err != nil {
		return "", fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return configPath, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

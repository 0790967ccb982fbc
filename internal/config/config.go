// Package config builds the explicit runtime configuration consumed by the
// composition root. Nothing here is global: callers construct a Config once
// and pass it down.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds everything the server, CLI and supervisor need.
type Config struct {
	// Completion provider.
	APIKey    string // ANTHROPIC_API_KEY
	BaseURL   string // ANTHROPIC_BASE_URL, optional compatible endpoint
	Model     string // DIALOGCAST_MODEL, alias (haiku/sonnet) or full id
	MaxTokens int64  // DIALOGCAST_MAX_TOKENS

	// Server + supervisor.
	Port    int    // DIALOGCAST_PORT
	DataDir string // DIALOGCAST_DATA_DIR
}

// FromEnv loads .env from the working directory (existing environment
// wins), then reads the recognized variables with defaults.
func FromEnv() Config {
	LoadDotEnv(".env")

	return Config{
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
		Model:     envOr("DIALOGCAST_MODEL", "haiku"),
		MaxTokens: envInt64("DIALOGCAST_MAX_TOKENS", 4096),
		Port:      int(envInt64("DIALOGCAST_PORT", 4190)),
		DataDir:   envOr("DIALOGCAST_DATA_DIR", "dialogcast-output"),
	}
}

func (c Config) AudioDir() string   { return filepath.Join(c.DataDir, "audio") }
func (c Config) ResultsDir() string { return filepath.Join(c.DataDir, "results") }
func (c Config) LogDir() string     { return filepath.Join(c.DataDir, "logs") }
func (c Config) StaticDir() string  { return filepath.Join(c.DataDir, "static") }
func (c Config) PIDFile() string    { return filepath.Join(c.DataDir, "app.pid") }

// LoadDotEnv reads KEY=VALUE lines from path into the environment.
// Variables already set keep their value. Missing file is not an error.
func LoadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, value)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

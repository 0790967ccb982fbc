package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "DIALOGCAST_MODEL",
		"DIALOGCAST_MAX_TOKENS", "DIALOGCAST_PORT", "DIALOGCAST_DATA_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "haiku", cfg.Model)
	assert.Equal(t, int64(4096), cfg.MaxTokens)
	assert.Equal(t, 4190, cfg.Port)
	assert.Equal(t, "dialogcast-output", cfg.DataDir)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DIALOGCAST_MODEL", "sonnet")
	t.Setenv("DIALOGCAST_MAX_TOKENS", "2048")
	t.Setenv("DIALOGCAST_PORT", "8080")
	t.Setenv("DIALOGCAST_DATA_DIR", "/tmp/dc")

	cfg := FromEnv()
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "sonnet", cfg.Model)
	assert.Equal(t, int64(2048), cfg.MaxTokens)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/dc", cfg.DataDir)
}

func TestFromEnvBadNumbersFallBack(t *testing.T) {
	t.Setenv("DIALOGCAST_MAX_TOKENS", "lots")
	t.Setenv("DIALOGCAST_PORT", "")

	cfg := FromEnv()
	assert.Equal(t, int64(4096), cfg.MaxTokens)
	assert.Equal(t, 4190, cfg.Port)
}

func TestPaths(t *testing.T) {
	cfg := Config{DataDir: "/data/dc"}
	assert.Equal(t, filepath.Join("/data/dc", "audio"), cfg.AudioDir())
	assert.Equal(t, filepath.Join("/data/dc", "results"), cfg.ResultsDir())
	assert.Equal(t, filepath.Join("/data/dc", "logs"), cfg.LogDir())
	assert.Equal(t, filepath.Join("/data/dc", "static"), cfg.StaticDir())
	assert.Equal(t, filepath.Join("/data/dc", "app.pid"), cfg.PIDFile())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# provider settings
ANTHROPIC_API_KEY=sk-from-file
DIALOGCAST_MODEL="sonnet"
DIALOGCAST_DATA_DIR='quoted-dir'

not a kv line
=novalue
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("DIALOGCAST_MODEL", "")
	t.Setenv("DIALOGCAST_DATA_DIR", "")

	LoadDotEnv(path)

	// existing environment wins over the file
	assert.Equal(t, "sk-from-env", os.Getenv("ANTHROPIC_API_KEY"))
	// quotes are stripped
	assert.Equal(t, "sonnet", os.Getenv("DIALOGCAST_MODEL"))
	assert.Equal(t, "quoted-dir", os.Getenv("DIALOGCAST_DATA_DIR"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	// absent file is silently ignored
	LoadDotEnv(filepath.Join(t.TempDir(), "no-such.env"))
}

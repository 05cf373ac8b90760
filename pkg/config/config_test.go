package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".workshop", "blueprints"), cfg.BlueprintsDir)
	assert.Equal(t, filepath.Join(home, ".workshop", "pieces"), cfg.PiecesDir)
	assert.Equal(t, filepath.Join(home, ".workshop", "history.db"), cfg.History.Path)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `blueprints_dir: ~/templates/blueprints
pieces_dir: /srv/pieces
history:
  enabled: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "templates", "blueprints"), cfg.BlueprintsDir)
	assert.Equal(t, "/srv/pieces", cfg.PiecesDir)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(home, ".workshop", "history.db"), cfg.History.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pieces_dir: /from/file\n"), 0644))

	t.Setenv("WORKSHOP_PIECES_DIR", "/from/env")
	t.Setenv("WORKSHOP_BLUEPRINTS_DIR", "/env/blueprints")
	t.Setenv("WORKSHOP_HISTORY_DB", "/env/history.db")
	t.Setenv("WORKSHOP_HISTORY_ENABLED", "false")
	t.Setenv("WORKSHOP_LOG_LEVEL", "error")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.PiecesDir)
	assert.Equal(t, "/env/blueprints", cfg.BlueprintsDir)
	assert.Equal(t, "/env/history.db", cfg.History.Path)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WORKSHOP_HISTORY_ENABLED", "sometimes")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment overrides")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pieces_dir: [\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestWriteDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := WriteDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".workshop", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.DirExists(t, filepath.Join(home, ".workshop", "blueprints"))
	assert.DirExists(t, filepath.Join(home, ".workshop", "pieces"))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))
	_, err = WriteDefaultConfig()
	require.NoError(t, err)

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

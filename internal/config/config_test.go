package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	require.Contains(t, c.Database.Path, "quillbooks.db")
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, "console", c.Log.Format)
	require.Equal(t, "stderr", c.Log.Output)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[database]\npath = \"/tmp/custom.db\"\n\n[log]\nlevel = \"debug\"\n"), 0o644))
	t.Setenv("QUILLBOOKS_CONFIG", cfgPath)

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", c.Database.Path)
	require.Equal(t, "debug", c.Log.Level)
	// Unset keys keep their defaults.
	require.Equal(t, "console", c.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"warn\"\n"), 0o644))
	t.Setenv("QUILLBOOKS_CONFIG", cfgPath)
	t.Setenv("QUILLBOOKS_LOG_LEVEL", "trace")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "trace", c.Log.Level)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()), "a missing file is not an error")

	s, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "markermap.log", s.LogFile)
	assert.Equal(t, "overlayPane", s.Layer.Pane)
	assert.Equal(t, 25, s.Index.MinChildren)
	assert.Equal(t, 50, s.Index.MaxChildren)
	assert.Equal(t, 0.1, s.Index.CompactRatio)
	assert.EqualValues(t, 8, s.Images.MaxConcurrent)
	assert.Equal(t, "", s.Images.Fallback)
	assert.Equal(t, "builtin:red", s.Icons.Default)
	assert.Equal(t, 8.0, s.Icons.Width)
	assert.Equal(t, 8.0, s.Icons.AnchorY)
}

func TestLoad_WithConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `
logLevel: debug
layer:
  pane: markerPane
index:
  compactRatio: 0.25
icons:
  default: builtin:blue
  width: 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	s, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "markerPane", s.Layer.Pane)
	assert.Equal(t, 0.25, s.Index.CompactRatio)
	assert.Equal(t, 50, s.Index.MaxChildren)
	assert.Equal(t, "builtin:blue", s.Icons.Default)
	assert.Equal(t, 12.0, s.Icons.Width)
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("logLevel: [unclosed"), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("MARKERMAP_LOGLEVEL", "warn")
	t.Setenv("MARKERMAP_IMAGES_MAXCONCURRENT", "3")

	require.NoError(t, Load(t.TempDir()))

	s, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
	assert.EqualValues(t, 3, s.Images.MaxConcurrent)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, DefaultModel, cfg.Model.Name)
	require.Equal(t, DefaultBaseURL, cfg.Model.BaseURL)
	require.Equal(t, DefaultTimeoutSec, cfg.Model.TimeoutSec)
	require.Equal(t, DefaultServerPort, cfg.Server.Port)
	require.False(t, cfg.HistoryEnabled())
}

func TestLoadMergesFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `model:
  name: mistral
weights:
  accuracy: 0.8
history:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "mistral", cfg.Model.Name)
	// Unset fields keep defaults.
	require.Equal(t, DefaultBaseURL, cfg.Model.BaseURL)
	require.Equal(t, DefaultHistoryPath, cfg.History.Path)
	require.True(t, cfg.HistoryEnabled())

	weights := cfg.BenchmarkWeights()
	sum := weights.Accuracy + weights.Completeness + weights.Efficiency
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Greater(t, weights.Accuracy, weights.Completeness)
}

func TestLoadWalksUpToParent(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, ConfigFileName),
		[]byte("model:\n  name: phi3\n"), 0o644))

	cfg, err := Load(child)
	require.NoError(t, err)
	require.Equal(t, "phi3", cfg.Model.Name)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("model: [broken"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/features"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, features.Default(), cfg.Features)
	assert.False(t, cfg.Interpreted())
	assert.False(t, cfg.FailOnNonConfigurableDelete)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
features:
  - numericKeysEnumeratedFirst
  - forwardHoistNestedFunctionDeclarations
optimizationLevel: -1
failOnNonConfigurableDelete: true
maxSteps: 5000
logLevel: debug
`))
	require.NoError(t, err)
	assert.True(t, cfg.Features.NumericKeysEnumeratedFirst)
	assert.True(t, cfg.Features.ForwardHoistNestedFunctionDeclarations)
	// Default features stay on unless switched off.
	assert.True(t, cfg.Features.StrictPropertyAssignment)
	assert.True(t, cfg.Interpreted())
	assert.True(t, cfg.FailOnNonConfigurableDelete)
	assert.Equal(t, int64(5000), cfg.MaxSteps)
	assert.Equal(t, 1000, cfg.MaxCallDepth)
}

func TestParseMappingDisablesDefault(t *testing.T) {
	cfg, err := Parse([]byte("features:\n  strictPropertyAssignment: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Features.StrictPropertyAssignment)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"level":   "optimizationLevel: 12",
		"steps":   "maxSteps: -1",
		"depth":   "maxCallDepth: -3",
		"log":     "logLevel: loud",
		"feature": "features: [warpDrive]",
		"yaml":    "features: {",
	} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestValidateErrorsCarryStack(t *testing.T) {
	cfg := Default()
	cfg.OptimizationLevel = 10
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "optimization level 10 out of range [-1, 9]", err.Error())
	assert.Contains(t, fmt.Sprintf("%+v", err), "config.Config.Validate")

	_, err = ParseLevel("loud")
	require.Error(t, err)
	assert.Contains(t, fmt.Sprintf("%+v", err), "config.ParseLevel")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("optimizationLevel: 9\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.OptimizationLevel)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("INFO")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

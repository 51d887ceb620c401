package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"jscore/pkg/config"
	"jscore/pkg/features"
)

// scriptMeta is the front matter of a conformance script:
//
//	/*---
//	features: [numericKeysEnumeratedFirst]
//	expected: "0,1,"
//	---*/
type scriptMeta struct {
	Description string       `yaml:"description"`
	Source      string       `yaml:"source"`
	Features    features.Set `yaml:"features"`
	Expected    *string      `yaml:"expected"`
	Error       string       `yaml:"error"`
}

func readScript(t *testing.T, path string) (scriptMeta, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	code := string(data)

	start := strings.Index(code, "/*---")
	end := strings.Index(code, "---*/")
	require.True(t, start >= 0 && end > start, "%s: missing front matter", path)

	var meta scriptMeta
	require.NoError(t, yaml.Unmarshal([]byte(code[start+len("/*---"):end]), &meta), path)
	if meta.Source == "" {
		meta.Source = filepath.Base(path)
	}
	return meta, code
}

func TestScripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.js"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		meta, code := readScript(t, path)
		t.Run(strings.TrimSuffix(filepath.Base(path), ".js"), func(t *testing.T) {
			for _, level := range levels {
				cfg := config.Default()
				cfg.Features = meta.Features
				cfg.OptimizationLevel = level
				s, err := NewSession(cfg)
				require.NoError(t, err)

				v, err := s.Evaluate(context.Background(), meta.Source, 1, code)
				if meta.Error != "" {
					require.Error(t, err, "level %d", level)
					assert.Equal(t, meta.Error, err.Error(), "level %d", level)
					continue
				}
				require.NoError(t, err, "level %d", level)
				if meta.Expected != nil {
					got, err := s.ToString(v)
					require.NoError(t, err)
					assert.Equal(t, *meta.Expected, got, "level %d", level)
				}
			}
		})
	}
}

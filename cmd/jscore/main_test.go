package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/config"
	"jscore/pkg/features"
	"jscore/pkg/source"
)

func TestParseFeatures(t *testing.T) {
	fs, err := parseFeatures("numericKeysEnumeratedFirst, forwardHoistNestedFunctionDeclarations")
	require.NoError(t, err)
	assert.True(t, fs.NumericKeysEnumeratedFirst)
	assert.True(t, fs.ForwardHoistNestedFunctionDeclarations)
	assert.False(t, fs.StrictPropertyAssignment)

	_, err = parseFeatures("noSuchFeature")
	assert.Error(t, err)
}

func TestRunSource(t *testing.T) {
	opts := options{cfg: config.Default()}
	opts.cfg.Features = features.Set{NumericKeysEnumeratedFirst: true}

	var out, errOut strings.Builder
	ok := runSource(context.Background(), opts, source.NewEvalSource("Object.keys({b: 1, 1: 1}).join()"), &out, &errOut)
	assert.True(t, ok)
	assert.Equal(t, "1,b\n", out.String())

	out.Reset()
	ok = runSource(context.Background(), opts, source.NewEvalSource("var x = 1"), &out, &errOut)
	assert.True(t, ok)
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	ok = runSource(context.Background(), opts, source.NewEvalSource("null.x"), &out, &errOut)
	assert.False(t, ok)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `TypeError: Cannot read property "x" from null`)
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(a, []byte("'a' + 1"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("undefined.y"), 0o644))

	opts := options{cfg: config.Default()}
	var out, errOut strings.Builder
	assert.True(t, runFile(context.Background(), opts, a, &out, &errOut))
	assert.Equal(t, "a1\n", out.String())

	var stdout, stderr strings.Builder
	assert.False(t, runFiles(context.Background(), opts, []string{a, b}, &stdout, &stderr))
	assert.Equal(t, "==> a.js <==\na1\n==> b.js <==\n", stdout.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "==> b.js <==\nTypeError: Cannot read property \"y\" from undefined (b.js#1)\n"),
		stderr.String())
}

func TestRunFilesKeepsDiagnosticsPerFile(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"one.js", "two.js", "three.js", "four.js", "five.js"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("function f() {\n  return null.k;\n}\nf();"), 0o644))
		paths = append(paths, path)
	}

	opts := options{cfg: config.Default(), showStat: true}
	var stdout, stderr strings.Builder
	assert.False(t, runFiles(context.Background(), opts, paths, &stdout, &stderr))

	// Each file's diagnostics form one contiguous section, in argument order.
	sections := strings.Split(stderr.String(), "==> ")[1:]
	require.Len(t, sections, len(paths))
	for i, sec := range sections {
		name := filepath.Base(paths[i])
		assert.True(t, strings.HasPrefix(sec, name+" <==\n"), sec)
		assert.Contains(t, sec, "("+name+"#2)")
		assert.Contains(t, sec, "elapsed:")
		for _, other := range paths {
			if o := filepath.Base(other); o != name {
				assert.NotContains(t, sec, "("+o+"#")
			}
		}
	}
}

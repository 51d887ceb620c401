package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFeature(t *testing.T) {
	for _, f := range All() {
		got, err := ParseFeature(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFeature("NUMERICKEYSENUMERATEDFIRST")
	require.NoError(t, err)
	assert.Equal(t, NumericKeysEnumeratedFirst, got)

	_, err = ParseFeature("dynamicScope")
	assert.Error(t, err)
}

func TestWithReturnsCopy(t *testing.T) {
	base := Set{}
	on := base.With(ForwardHoistNestedFunctionDeclarations, true)

	assert.False(t, base.Has(ForwardHoistNestedFunctionDeclarations))
	assert.True(t, on.Has(ForwardHoistNestedFunctionDeclarations))
	assert.False(t, on.Has(NumericKeysEnumeratedFirst))
	assert.Equal(t, "{forwardHoistNestedFunctionDeclarations}", on.String())
}

func TestDefault(t *testing.T) {
	d := Default()
	assert.True(t, d.Has(StrictPropertyAssignment))
	assert.False(t, d.Has(ForwardHoistNestedFunctionDeclarations))
	assert.False(t, d.Has(NumericKeysEnumeratedFirst))
}

func TestUnmarshalYAML(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		var s Set
		err := yaml.Unmarshal([]byte("numericKeysEnumeratedFirst: true\nstrictPropertyAssignment: false\n"), &s)
		require.NoError(t, err)
		assert.Equal(t, Set{NumericKeysEnumeratedFirst: true}, s)
	})
	t.Run("list", func(t *testing.T) {
		var s Set
		err := yaml.Unmarshal([]byte("[forwardHoistNestedFunctionDeclarations, strictPropertyAssignment]"), &s)
		require.NoError(t, err)
		assert.Equal(t, Set{ForwardHoistNestedFunctionDeclarations: true, StrictPropertyAssignment: true}, s)
	})
	t.Run("unknown", func(t *testing.T) {
		var s Set
		err := yaml.Unmarshal([]byte("warpSpeed: true\n"), &s)
		assert.ErrorContains(t, err, "warpSpeed")
	})
	t.Run("scalar", func(t *testing.T) {
		var s Set
		err := yaml.Unmarshal([]byte("true"), &s)
		assert.Error(t, err)
	})
}

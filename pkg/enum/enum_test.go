package enum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jscore/pkg/features"
)

var insertion = []string{"xxx", "50", "zzz", "100", "0", "yyy"}

func joined(keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + ",")
	}
	return b.String()
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		features features.Set
		want     string
	}{
		{"insertion order", features.Set{}, "xxx,50,zzz,100,0,yyy,"},
		{"numbers first", features.Set{NumericKeysEnumeratedFirst: true}, "0,50,100,xxx,zzz,yyy,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joined(Order(insertion, tt.features)))
		})
	}
}

func TestOrderIsPure(t *testing.T) {
	input := append([]string(nil), insertion...)
	fs := features.Set{NumericKeysEnumeratedFirst: true}

	first := Order(input, fs)
	second := Order(input, fs)

	assert.Equal(t, first, second)
	assert.Equal(t, insertion, input, "input must not be reordered")
}

func TestOrderNonCanonicalNumbersKeepPlace(t *testing.T) {
	keys := []string{"b", "010", "2", "-1", "1.5", "1"}
	got := Order(keys, features.Set{NumericKeysEnumeratedFirst: true})
	assert.Equal(t, []string{"1", "2", "b", "010", "-1", "1.5"}, got)
}

func TestOrderEmpty(t *testing.T) {
	assert.Empty(t, Order(nil, features.Set{NumericKeysEnumeratedFirst: true}))
	assert.Empty(t, Order(nil, features.Set{}))
}

func TestPolicy(t *testing.T) {
	order := Policy(features.Set{NumericKeysEnumeratedFirst: true})
	assert.Equal(t, []string{"0", "x"}, order([]string{"x", "0"}))
	assert.True(t, IsArrayIndex("4294967294"))
	assert.False(t, IsArrayIndex("4294967295"))
}

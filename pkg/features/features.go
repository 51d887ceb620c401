// Package features holds the closed set of semantic toggles an evaluation
// context is created with.
package features

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Feature names one semantic toggle.
type Feature uint8

const (
	// ForwardHoistNestedFunctionDeclarations binds function declarations
	// nested in blocks to the enclosing function scope before the function
	// body starts executing.
	ForwardHoistNestedFunctionDeclarations Feature = iota
	// NumericKeysEnumeratedFirst enumerates array-index-like keys first, in
	// ascending numeric order.
	NumericKeysEnumeratedFirst
	// StrictPropertyAssignment makes writes to getter-only and read-only
	// properties fail instead of being silently dropped.
	StrictPropertyAssignment

	numFeatures
)

var featureNames = [numFeatures]string{
	ForwardHoistNestedFunctionDeclarations: "forwardHoistNestedFunctionDeclarations",
	NumericKeysEnumeratedFirst:             "numericKeysEnumeratedFirst",
	StrictPropertyAssignment:               "strictPropertyAssignment",
}

func (f Feature) String() string {
	if f < numFeatures {
		return featureNames[f]
	}
	return fmt.Sprintf("Feature(%d)", uint8(f))
}

// All returns every known feature in declaration order.
func All() []Feature {
	out := make([]Feature, 0, numFeatures)
	for f := Feature(0); f < numFeatures; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFeature maps a feature name to its Feature. Matching ignores case.
func ParseFeature(name string) (Feature, error) {
	for f := Feature(0); f < numFeatures; f++ {
		if strings.EqualFold(featureNames[f], name) {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown feature %q", name)
}

// Set is an immutable table of feature values. The zero value has every
// feature disabled except where Default says otherwise; copy it freely.
type Set struct {
	ForwardHoistNestedFunctionDeclarations bool `yaml:"forwardHoistNestedFunctionDeclarations"`
	NumericKeysEnumeratedFirst             bool `yaml:"numericKeysEnumeratedFirst"`
	StrictPropertyAssignment               bool `yaml:"strictPropertyAssignment"`
}

// Default returns the feature set used when the host does not supply one.
func Default() Set {
	return Set{StrictPropertyAssignment: true}
}

// Has reports whether f is enabled.
func (s Set) Has(f Feature) bool {
	switch f {
	case ForwardHoistNestedFunctionDeclarations:
		return s.ForwardHoistNestedFunctionDeclarations
	case NumericKeysEnumeratedFirst:
		return s.NumericKeysEnumeratedFirst
	case StrictPropertyAssignment:
		return s.StrictPropertyAssignment
	}
	return false
}

// With returns a copy of s with f set to on.
func (s Set) With(f Feature, on bool) Set {
	switch f {
	case ForwardHoistNestedFunctionDeclarations:
		s.ForwardHoistNestedFunctionDeclarations = on
	case NumericKeysEnumeratedFirst:
		s.NumericKeysEnumeratedFirst = on
	case StrictPropertyAssignment:
		s.StrictPropertyAssignment = on
	}
	return s
}

// Enabled lists the names of the enabled features, sorted.
func (s Set) Enabled() []string {
	var names []string
	for _, f := range All() {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	sort.Strings(names)
	return names
}

func (s Set) String() string {
	return "{" + strings.Join(s.Enabled(), ",") + "}"
}

// UnmarshalYAML accepts either a mapping of feature name to bool or a list
// of enabled feature names. Unknown names are rejected.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	out := *s
	switch node.Kind {
	case yaml.MappingNode:
		var m map[string]bool
		if err := node.Decode(&m); err != nil {
			return err
		}
		for name, on := range m {
			f, err := ParseFeature(name)
			if err != nil {
				return err
			}
			out = out.With(f, on)
		}
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		for _, name := range names {
			f, err := ParseFeature(name)
			if err != nil {
				return err
			}
			out = out.With(f, true)
		}
	default:
		return errors.Errorf("line %d: features must be a mapping or a list", node.Line)
	}
	*s = out
	return nil
}

// Package enum decides the order in which for-in visits an object's keys.
package enum

import (
	"sort"

	"jscore/pkg/features"
	"jscore/pkg/object"
)

// IsArrayIndex reports whether key is array-index-like: canonical
// non-negative integer text below 2^32-1.
func IsArrayIndex(key string) bool {
	_, ok := object.ArrayIndex(key)
	return ok
}

// Order returns keys in enumeration order. By default this is the given
// (insertion) order. With NumericKeysEnumeratedFirst, array-index-like keys
// come first in ascending numeric order, followed by the remaining keys in
// their original order. keys is never modified.
func Order(keys []string, fs features.Set) []string {
	out := make([]string, len(keys))
	if !fs.Has(features.NumericKeysEnumeratedFirst) {
		copy(out, keys)
		return out
	}

	type indexKey struct {
		idx uint32
		key string
	}
	var indices []indexKey
	rest := make([]string, 0, len(keys))
	for _, k := range keys {
		if idx, ok := object.ArrayIndex(k); ok {
			indices = append(indices, indexKey{idx, k})
		} else {
			rest = append(rest, k)
		}
	}
	sort.SliceStable(indices, func(i, j int) bool { return indices[i].idx < indices[j].idx })

	out = out[:0]
	for _, ik := range indices {
		out = append(out, ik.key)
	}
	return append(out, rest...)
}

// Policy binds Order to one feature set, in the shape object.Model expects.
func Policy(fs features.Set) object.OrderFunc {
	return func(keys []string) []string { return Order(keys, fs) }
}

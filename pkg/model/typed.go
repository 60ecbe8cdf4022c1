package model

import "github.com/leapstack-labs/leapmodel/pkg/core"

// Get reads a property by name and asserts its type.
func Get[T any](m core.Model, name string) (T, bool) {
	v, ok := m.TryGetValue(name)
	if !ok {
		var zero T
		return zero, false
	}
	if v == nil {
		var zero T
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}

// Set writes a property by name.
func Set[T any](m core.Model, name string, value T) bool {
	return m.TrySetValue(name, value)
}

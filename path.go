package attrmap

import (
	"fmt"
	"strings"
)

// GetPath resolves a dotted path ("server.limits.daily") against nested
// mappings, descending through plain maps and Map wrappers alike. The
// result is raw, mirroring key-style access.
func (m *Map) GetPath(path string) (any, error) {
	value, ok := lookupPath(m.backing, path)
	if !ok {
		return nil, fmt.Errorf("%w: path %q", ErrKeyNotFound, path)
	}
	return value, nil
}

// HasPath reports whether the dotted path resolves.
func (m *Map) HasPath(path string) bool {
	_, ok := lookupPath(m.backing, path)
	return ok
}

func lookupPath(root any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		backing, ok := asBacking(current)
		if !ok {
			return nil, false
		}
		current, ok = backing[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}

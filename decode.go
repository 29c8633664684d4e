package attrmap

import (
	"github.com/goliatone/go-attrmap/internal/hydrate"
)

// Decode hydrates the raw backing of m into a typed struct via JSON
// round-tripping. Nested Map wrappers are normalized away first, so merge
// output decodes the same as plain mappings.
func Decode[T any](m *Map, name string) (T, error) {
	decoder := hydrate.NewDecoder[T]()
	payload := normalizeValue(m.backing).(map[string]any)
	return decoder.Decode(hydrate.Context{Name: name}, payload)
}

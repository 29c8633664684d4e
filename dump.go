package attrmap

import "github.com/davecgh/go-spew/spew"

// Dump returns a deep, type-annotated rendering of the raw backing mapping.
// Meant for debugging; String produces the compact form.
func (m *Map) Dump() string {
	return spew.Sdump(m.backing)
}

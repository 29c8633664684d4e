package attrmap

import (
	"fmt"
	"regexp"
)

// attrNamePattern is the attribute-safety predicate: non-empty, leading
// alphabetic character, remainder alphanumeric or underscore.
var attrNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reservedNames enumerates the mapping-protocol member names that attribute
// resolution may fall back to. Fixed at process start; never derived from
// reflection.
var reservedNames = map[string]struct{}{
	"get":    {},
	"items":  {},
	"keys":   {},
	"values": {},
	"pop":    {},
	"update": {},
}

// AttrSafe reports whether name is eligible for attribute-style access: it
// must satisfy the naming predicate and must not collide with a reserved
// mapping-protocol member.
func AttrSafe(name string) bool {
	if !attrNamePattern.MatchString(name) {
		return false
	}
	_, reserved := reservedNames[name]
	return !reserved
}

// attrSource tags the channel an attribute resolution came from.
type attrSource int

const (
	attrNotFound attrSource = iota
	attrFromBacking
	attrFromBuiltin
)

// resolveAttr performs the two-tier attribute resolution: the backing
// mapping under the attribute-safety predicate first, then the enumerated
// builtin members. Unsafe names never reach the backing.
func (m *Map) resolveAttr(name string) (any, attrSource) {
	if AttrSafe(name) {
		if value, ok := m.backing[name]; ok {
			return m.wrapValue(value), attrFromBacking
		}
		if value, ok := m.materializeDefault(name); ok {
			return m.wrapValue(value), attrFromBacking
		}
	}
	if member, ok := m.builtinMember(name); ok {
		return member, attrFromBuiltin
	}
	return nil, attrNotFound
}

// Attr resolves name as an attribute. An attribute-safe name present in the
// backing returns its value through the on-read wrapping rule; an absent or
// unsafe name falls back to the builtin mapping operations, surfaced as
// bound Function values. Anything else fails with ErrAttrNotFound.
func (m *Map) Attr(name string) (any, error) {
	value, source := m.resolveAttr(name)
	if source == attrNotFound {
		return nil, fmt.Errorf("%w: %q", ErrAttrNotFound, name)
	}
	return value, nil
}

// SetAttr writes value under name using key semantics. Names that collide
// with reserved members still land in the backing mapping; the mapping
// contract wins over attribute shadowing.
func (m *Map) SetAttr(name string, value any) {
	m.Set(name, value)
}

// DeleteAttr removes name from the backing mapping using key semantics.
func (m *Map) DeleteAttr(name string) error {
	return m.Delete(name)
}

// Call is the dynamic accessor: it looks name up directly in the backing,
// bypassing the attribute-safety filter, and returns the value through the
// on-read wrapping rule. This is the only way to retrieve, wrapped, a key
// that is not attribute-safe.
func (m *Map) Call(name string) (any, error) {
	if value, ok := m.backing[name]; ok {
		return m.wrapValue(value), nil
	}
	if value, ok := m.materializeDefault(name); ok {
		return m.wrapValue(value), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, name)
}

// builtinMember returns the bound mapping operation registered for a
// reserved name.
func (m *Map) builtinMember(name string) (Function, bool) {
	switch name {
	case "get":
		return func(args ...any) (any, error) {
			key, err := builtinKeyArg("get", args)
			if err != nil {
				return nil, err
			}
			if len(args) > 1 {
				return m.GetDefault(key, args[1]), nil
			}
			return m.GetDefault(key, nil), nil
		}, true
	case "keys":
		return func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("attrmap: keys takes no arguments")
			}
			return m.Keys(), nil
		}, true
	case "values":
		return func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("attrmap: values takes no arguments")
			}
			return m.Values(), nil
		}, true
	case "items":
		return func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("attrmap: items takes no arguments")
			}
			return m.Items(), nil
		}, true
	case "pop":
		return func(args ...any) (any, error) {
			key, err := builtinKeyArg("pop", args)
			if err != nil {
				return nil, err
			}
			value, ok := m.backing[key]
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
			}
			delete(m.backing, key)
			return value, nil
		}, true
	case "update":
		return func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("attrmap: update takes exactly one mapping argument")
			}
			source, ok := asBacking(args[0])
			if !ok {
				return nil, fmt.Errorf("%w: %T", ErrInvalidKind, args[0])
			}
			for key, value := range source {
				m.backing[key] = value
			}
			return nil, nil
		}, true
	default:
		return nil, false
	}
}

func builtinKeyArg(member string, args []any) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", fmt.Errorf("attrmap: %s takes a key and an optional fallback", member)
	}
	key, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("attrmap: %s key must be a string, got %T", member, args[0])
	}
	return key, nil
}

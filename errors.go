package attrmap

import "errors"

var (
	// ErrInvalidKind indicates construction or merge received an operand
	// that is neither a map[string]any nor a *Map.
	ErrInvalidKind = errors.New("attrmap: operand is not a mapping")
	// ErrKeyNotFound indicates a key-style or dynamic lookup of an absent
	// key with no fallback supplied.
	ErrKeyNotFound = errors.New("attrmap: key not found")
	// ErrAttrNotFound indicates attribute-style resolution matched neither
	// an attribute-safe key in the backing nor a builtin member.
	ErrAttrNotFound = errors.New("attrmap: attribute not found")
)

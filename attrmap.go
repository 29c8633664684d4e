// Package attrmap provides a mapping wrapper that exposes its entries both
// through explicit key lookup and through attribute-style field access, plus
// a deterministic, non-commutative recursive merge between mappings.
//
// A Map never clones the mapping it is constructed from: the caller's
// map[string]any is the live backing store, and external mutation of it
// remains visible through the wrapper. The backing carries no internal
// locking, so concurrent writers need synchronization supplied by the
// caller. Cyclic mapping structures are unsupported and will recurse
// indefinitely when wrapped or merged.
package attrmap

import (
	"fmt"
	"reflect"
	"sort"
)

// Map wraps a plain map[string]any with dual-access resolution. Key-style
// reads always return the raw stored value; attribute-style reads and the
// dynamic accessor pass values through the on-read wrapping rule.
type Map struct {
	backing   map[string]any
	recursive bool
	cfg       mapConfig
	layers    []layerSnapshot
}

// Option configures a Map at construction time.
type Option func(*mapConfig)

type mapConfig struct {
	recursive      bool
	defaultFactory func(key string) any
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	logger         QueryLogger
}

func applyOptions(opts []Option) mapConfig {
	cfg := mapConfig{recursive: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithRecursion controls whether nested containers are wrapped on read.
// Enabled by default; the flag is immutable once the Map exists.
func WithRecursion(enabled bool) Option {
	return func(cfg *mapConfig) {
		cfg.recursive = enabled
	}
}

// New constructs an empty Map.
func New(opts ...Option) *Map {
	return newMap(map[string]any{}, applyOptions(opts))
}

// Wrap constructs a Map over backing without copying it. The Map takes the
// reference as-is; a nil map is replaced with an empty one.
func Wrap(backing map[string]any, opts ...Option) *Map {
	return newMap(backing, applyOptions(opts))
}

// From constructs a Map from source, which must be a map[string]any, a *Map,
// or nil (empty backing). Wrapping an existing Map shares its backing and
// ANDs the caller-supplied recursion flag with the source's own, so a
// non-recursive ancestor keeps wrapping disabled downstream.
func From(source any, opts ...Option) (*Map, error) {
	cfg := applyOptions(opts)
	switch src := source.(type) {
	case nil:
		return newMap(map[string]any{}, cfg), nil
	case map[string]any:
		return newMap(src, cfg), nil
	case *Map:
		if src == nil {
			return newMap(map[string]any{}, cfg), nil
		}
		cfg.recursive = cfg.recursive && src.recursive
		return newMap(src.backing, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidKind, source)
	}
}

func newMap(backing map[string]any, cfg mapConfig) *Map {
	if backing == nil {
		backing = map[string]any{}
	}
	return &Map{
		backing:   backing,
		recursive: cfg.recursive,
		cfg:       cfg,
	}
}

// derive builds a child Map over backing that inherits m's configuration.
func (m *Map) derive(backing map[string]any) *Map {
	cfg := m.cfg
	cfg.recursive = m.recursive
	return newMap(backing, cfg)
}

// Recursive reports whether nested containers are wrapped on read.
func (m *Map) Recursive() bool {
	return m.recursive
}

// Get returns the raw value stored under key. No wrapping is applied even
// when the value is a nested mapping; that asymmetry against Attr and Call
// is the defining contract of the type.
func (m *Map) Get(key string) (any, error) {
	if value, ok := m.backing[key]; ok {
		return value, nil
	}
	if value, ok := m.materializeDefault(key); ok {
		return value, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// GetDefault returns the raw value stored under key, or fallback when the
// key is absent. A configured default factory is not consulted.
func (m *Map) GetDefault(key string, fallback any) any {
	if value, ok := m.backing[key]; ok {
		return value
	}
	return fallback
}

// Set writes value under key directly into the backing mapping.
func (m *Map) Set(key string, value any) {
	m.backing[key] = value
}

// Delete removes key from the backing mapping.
func (m *Map) Delete(key string) error {
	if _, ok := m.backing[key]; !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	delete(m.backing, key)
	return nil
}

// Has reports whether key is present in the backing mapping.
func (m *Map) Has(key string) bool {
	_, ok := m.backing[key]
	return ok
}

// Len returns the number of entries in the backing mapping.
func (m *Map) Len() int {
	return len(m.backing)
}

// Raw returns the live backing mapping. Mutations through the returned map
// are visible to the wrapper and vice versa.
func (m *Map) Raw() map[string]any {
	return m.backing
}

// Item is a single key-value pair from the backing mapping.
type Item struct {
	Key   string
	Value any
}

// Keys returns the backing keys sorted lexically so enumeration is
// deterministic.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.backing))
	for key := range m.backing {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the raw values ordered to match Keys. Bulk iteration never
// wraps, consistent with key-style reads.
func (m *Map) Values() []any {
	keys := m.Keys()
	values := make([]any, len(keys))
	for i, key := range keys {
		values[i] = m.backing[key]
	}
	return values
}

// Items returns the raw key-value pairs ordered to match Keys.
func (m *Map) Items() []Item {
	keys := m.Keys()
	items := make([]Item, len(keys))
	for i, key := range keys {
		items[i] = Item{Key: key, Value: m.backing[key]}
	}
	return items
}

// wrapValue applies the on-read wrapping rule: when recursion is enabled,
// nested mappings become Maps sharing m's flag, []any sequences are rebuilt
// element-wise under the same rule, and everything else passes through.
func (m *Map) wrapValue(value any) any {
	if !m.recursive {
		return value
	}
	switch v := value.(type) {
	case map[string]any:
		return m.derive(v)
	case *Map:
		if v == nil {
			return v
		}
		cfg := m.cfg
		cfg.recursive = m.recursive && v.recursive
		return newMap(v.backing, cfg)
	case []any:
		wrapped := make([]any, len(v))
		for i, element := range v {
			wrapped[i] = m.wrapValue(element)
		}
		return wrapped
	default:
		return value
	}
}

// Equal reports whether m and other hold equal raw backings. Nested Map
// wrappers are normalized away first, so wrapping never affects equality.
// other may be a *Map or a plain map[string]any.
func (m *Map) Equal(other any) bool {
	switch o := other.(type) {
	case *Map:
		if o == nil {
			return false
		}
		return reflect.DeepEqual(normalizeValue(m.backing), normalizeValue(o.backing))
	case map[string]any:
		return reflect.DeepEqual(normalizeValue(m.backing), normalizeValue(o))
	default:
		return false
	}
}

// normalizeValue recursively strips Map wrappers, leaving plain mappings,
// slices, and scalars.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case *Map:
		if v == nil {
			return map[string]any{}
		}
		return normalizeValue(v.backing)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, element := range v {
			out[key] = normalizeValue(element)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, element := range v {
			out[i] = normalizeValue(element)
		}
		return out
	default:
		return value
	}
}

// String returns a debug representation of the backing mapping. Go prints
// map contents with sorted keys, so the output is deterministic.
func (m *Map) String() string {
	return fmt.Sprintf("attrmap.Map%v", normalizeValue(m.backing))
}

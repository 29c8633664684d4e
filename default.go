package attrmap

// WithDefaultFactory configures a factory invoked when Get, Attr, or Call
// misses the backing mapping. The produced value is stored under the missed
// key before being returned, so repeated reads observe the same value.
// GetDefault never consults the factory; its explicit fallback wins.
func WithDefaultFactory(factory func(key string) any) Option {
	return func(cfg *mapConfig) {
		cfg.defaultFactory = factory
	}
}

// materializeDefault runs the configured factory for key, storing and
// returning the produced value. Reports false when no factory is set.
func (m *Map) materializeDefault(key string) (any, bool) {
	if m.cfg.defaultFactory == nil {
		return nil, false
	}
	value := m.cfg.defaultFactory(key)
	m.backing[key] = value
	return value, true
}

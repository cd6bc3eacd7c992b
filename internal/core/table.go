package core

// CacheOwner is the untyped view of a table handler. The registry and the
// change feed consumer use it to reach a handler's identity cache without
// knowing its record type.
type CacheOwner interface {
	// Name returns the table name.
	Name() string

	// Evict removes the given identifier keys from the cache.
	Evict(keys ...string)

	// EmptyCache removes every cached record.
	EmptyCache()

	// CacheSize returns the number of cached records.
	CacheSize() int
}

package cache

// ScopedKeyer wraps a Keyer with a prefix for isolation. This is useful when
// several deployments or catalogs share one Redis instance.
//
// Example usage:
//
//	// Keys for the fall catalog
//	fall := NewScopedKeyer(NewDefaultKeyer(), "catalog:2026fa:")
//
//	// Shared keys
//	shared := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(courseID int) string {
	return k.prefix + k.inner.GraphKey(courseID)
}

// EvalKey generates a prefixed key for evaluation caching.
func (k *ScopedKeyer) EvalKey(courseID int, progressHash string) string {
	return k.prefix + k.inner.EvalKey(courseID, progressHash)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash, optsHash string) string {
	return k.prefix + k.inner.LayoutKey(graphHash, optsHash)
}

// StatsKey generates a prefixed key for stats caching.
func (k *ScopedKeyer) StatsKey(courseID int) string {
	return k.prefix + k.inner.StatsKey(courseID)
}

// CourseKey generates a prefixed key for course metadata caching.
func (k *ScopedKeyer) CourseKey(courseID int) string {
	return k.prefix + k.inner.CourseKey(courseID)
}

package resource

// Cache memoizes resource bytes keyed by (tag, id). It is invalidated
// wholesale: ids are only unique within the archive set that produced them.
//
// Cache is owned by the single engine control flow and is not safe for
// concurrent use.
type Cache struct {
	enabled bool
	entries map[Key][]byte
}

// NewCache creates an empty cache. A disabled cache never stores anything.
func NewCache(enabled bool) *Cache {
	return &Cache{enabled: enabled, entries: make(map[Key][]byte)}
}

// Enabled reports whether the cache stores entries.
func (c *Cache) Enabled() bool { return c.enabled }

// Search returns a copy of the cached bytes for (tag, id).
func (c *Cache) Search(tag Tag, id uint16) ([]byte, bool) {
	d, ok := c.entries[Key{Tag: tag, ID: id}]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), d...), true
}

// Add stores a copy of data under (tag, id) when the cache is enabled.
func (c *Cache) Add(tag Tag, id uint16, data []byte) {
	if !c.enabled {
		return
	}
	c.entries[Key{Tag: tag, ID: id}] = append([]byte(nil), data...)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = make(map[Key][]byte)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

package assets

// Entry is one external asset referenced by a captured graph.
type Entry struct {
	Kind string
	Name string
	Path string
}

type entryKey struct{ kind, name string }

// Collector accumulates asset references during capture. Entries are
// deduplicated by (kind, name) and kept in first-seen order, so capturing
// the same graph twice yields the same manifest.
type Collector struct {
	seen    map[entryKey]int
	entries []Entry
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[entryKey]int)}
}

// Add records an asset reference. A repeated (kind, name) pair is ignored,
// except that a known path fills in an entry first seen without one.
func (c *Collector) Add(kind, name, path string) {
	k := entryKey{kind, name}
	if i, ok := c.seen[k]; ok {
		if c.entries[i].Path == "" {
			c.entries[i].Path = path
		}
		return
	}
	c.seen[k] = len(c.entries)
	c.entries = append(c.entries, Entry{Kind: kind, Name: name, Path: path})
}

// Entries returns the collected entries in first-seen order.
func (c *Collector) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of distinct entries.
func (c *Collector) Len() int { return len(c.entries) }

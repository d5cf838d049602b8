package itemcache

// SnapshotItem is the persisted form of one slotted entry.
type SnapshotItem struct {
	Key      string  `json:"key"`
	Index    int     `json:"index"`
	Height   float64 `json:"height"`
	Measured bool    `json:"measured"`
}

// Snapshot is a serializable copy of a cache's sizes and saved offset.
// Displaced entries are not included.
type Snapshot struct {
	Key                 string         `json:"key"`
	ScrollPosition      float64        `json:"scroll_position"`
	EstimatedItemHeight float64        `json:"estimated_item_height"`
	Items               []SnapshotItem `json:"items"`
}

// Snapshot copies the cache's slotted entries in index order.
func (c *Cache) Snapshot() Snapshot {
	s := Snapshot{
		Key:                 c.key,
		ScrollPosition:      c.scrollPosition,
		EstimatedItemHeight: c.estimatedItemHeight,
		Items:               make([]SnapshotItem, 0, len(c.itemsByIndex)),
	}
	for _, e := range c.itemsByIndex {
		if e == nil {
			continue
		}
		s.Items = append(s.Items, SnapshotItem{
			Key:      e.Key,
			Index:    e.Index,
			Height:   e.Height,
			Measured: e.Measured,
		})
	}
	return s
}

// Restore replaces the cache contents with s. The cache keeps its own key.
func (c *Cache) Restore(s Snapshot) {
	c.itemsByKey = make(map[string]*Entry, len(s.Items))
	c.itemsByIndex = c.itemsByIndex[:0]
	if s.EstimatedItemHeight > 0 {
		c.estimatedItemHeight = s.EstimatedItemHeight
	}
	c.scrollPosition = s.ScrollPosition

	for _, it := range s.Items {
		if it.Key == "" || it.Index < 0 {
			continue
		}
		if _, dup := c.itemsByKey[it.Key]; dup {
			continue
		}
		c.growTo(it.Index + 1)
		if c.itemsByIndex[it.Index] != nil {
			continue
		}
		e := &Entry{Key: it.Key, Index: it.Index, Height: it.Height, Measured: it.Measured}
		c.itemsByKey[it.Key] = e
		c.itemsByIndex[it.Index] = e
	}
	c.RecomputePositions()
}

// FromSnapshot builds a cache from a stored snapshot.
func FromSnapshot(s Snapshot) *Cache {
	c := New(s.Key, s.EstimatedItemHeight)
	c.Restore(s)
	return c
}

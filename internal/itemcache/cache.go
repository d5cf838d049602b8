package itemcache

import (
	"math"
	"sort"

	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/log"
)

// DefaultEstimatedItemHeight is used when a cache is created without an estimate.
const DefaultEstimatedItemHeight = 100

// Cache holds the entries of one list, indexed by key and by slot.
//
// Position updates are lazy: SetItem fixes up the written entry from its
// predecessor and marks the table dirty; the full pass runs once on the next
// frame (when a scheduler is attached) or on the next offset lookup.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	key string

	itemsByKey   map[string]*Entry
	itemsByIndex []*Entry
	// starts[i] is the top of slot i; holes count at the estimate.
	starts []float64
	total  float64

	scrollPosition      float64
	estimatedItemHeight float64

	dirty bool
	pass  *frame.Task
}

// New creates an empty cache. A non-positive estimate falls back to
// DefaultEstimatedItemHeight.
func New(key string, estimatedItemHeight float64) *Cache {
	if !(estimatedItemHeight > 0) {
		estimatedItemHeight = DefaultEstimatedItemHeight
	}
	return &Cache{
		key:                 key,
		itemsByKey:          make(map[string]*Entry),
		estimatedItemHeight: estimatedItemHeight,
	}
}

// Key returns the registry key the cache was created under.
func (c *Cache) Key() string { return c.key }

// AttachScheduler routes the coalesced position pass through s. A nil
// scheduler detaches; lookups still settle a dirty table on demand.
func (c *Cache) AttachScheduler(s frame.Scheduler) {
	if c.pass != nil {
		c.pass.Cancel()
		c.pass = nil
	}
	if s != nil {
		c.pass = frame.NewTask(s)
		if c.dirty {
			c.schedulePass()
		}
	}
}

// EstimatedItemHeight returns the height assumed for unmeasured items.
func (c *Cache) EstimatedItemHeight() float64 { return c.estimatedItemHeight }

// SetEstimatedItemHeight changes the estimate and re-estimates every
// unmeasured entry. Non-positive values are ignored.
func (c *Cache) SetEstimatedItemHeight(h float64) {
	if !(h > 0) || h == c.estimatedItemHeight {
		return
	}
	c.estimatedItemHeight = h
	for _, e := range c.itemsByKey {
		if !e.Measured {
			e.Height = h
		}
	}
	c.RecomputePositions()
}

// ScrollPosition returns the last saved scroll offset.
func (c *Cache) ScrollPosition() float64 { return c.scrollPosition }

// SetScrollPosition saves the scroll offset. Last write wins.
func (c *Cache) SetScrollPosition(offset float64) {
	if math.IsNaN(offset) {
		return
	}
	c.scrollPosition = offset
}

// Len returns the number of slots, holes included.
func (c *Cache) Len() int { return len(c.itemsByIndex) }

// SetItem records key at index with the given height and reports whether
// anything changed. A measured height always wins; an unmeasured height only
// applies while the entry has never been measured.
//
// The slot's previous owner, if another key, is displaced. If the key moves,
// its old slot is cleared.
func (c *Cache) SetItem(key string, index int, height float64, measured bool) bool {
	if key == "" || index < 0 || math.IsNaN(height) {
		return false
	}
	if height < 0 || math.IsInf(height, 0) {
		height = 0
	}

	e, ok := c.itemsByKey[key]
	if !ok {
		e = &Entry{Key: key, Index: -1}
		c.itemsByKey[key] = e
	}

	changed := !ok
	if e.Index != index {
		if e.Index >= 0 && e.Index < len(c.itemsByIndex) && c.itemsByIndex[e.Index] == e {
			c.itemsByIndex[e.Index] = nil
		}
		c.growTo(index + 1)
		if occ := c.itemsByIndex[index]; occ != nil && occ != e {
			occ.Index = -1
			log.Debug(log.CatCache, "entry displaced", "cache", c.key, "key", occ.Key, "by", key, "index", index)
		}
		c.itemsByIndex[index] = e
		e.Index = index
		changed = true
	}

	switch {
	case measured:
		if !e.Measured || e.Height != height {
			changed = true
		}
		e.Height = height
		e.Measured = true
	case !e.Measured && e.Height != height:
		e.Height = height
		changed = true
	}

	if !changed {
		return false
	}

	e.Position = c.predecessorEnd(index)
	c.dirty = true
	c.schedulePass()
	return true
}

// Sync makes keys the exact item order: known keys are re-indexed, unknown
// keys are inserted unmeasured at the estimate, and slots past len(keys) are
// dropped. Entries no longer listed keep their sizes but lose their slot. A
// key repeated in keys keeps its first slot; later copies get fallback keys.
func (c *Cache) Sync(keys []string) {
	next := make([]*Entry, len(keys))
	seen := make(map[string]struct{}, len(keys))

	for i, key := range keys {
		if _, dup := seen[key]; dup || key == "" {
			key = FallbackKey(i)
		}
		seen[key] = struct{}{}

		e, ok := c.itemsByKey[key]
		if !ok {
			e = &Entry{Key: key, Height: c.estimatedItemHeight}
			c.itemsByKey[key] = e
		}
		e.Index = i
		next[i] = e
	}

	for _, e := range c.itemsByIndex {
		if e == nil {
			continue
		}
		if _, ok := seen[e.Key]; !ok {
			e.Index = -1
		}
	}

	c.itemsByIndex = next
	c.RecomputePositions()
}

// GetItemByKey returns the entry for key.
func (c *Cache) GetItemByKey(key string) (Entry, bool) {
	e, ok := c.itemsByKey[key]
	if !ok {
		return Entry{}, false
	}
	if e.Index >= 0 {
		c.settle()
	}
	return *e, true
}

// GetItemByIndex returns the entry occupying index.
func (c *Cache) GetItemByIndex(index int) (Entry, bool) {
	if index < 0 || index >= len(c.itemsByIndex) || c.itemsByIndex[index] == nil {
		return Entry{}, false
	}
	c.settle()
	return *c.itemsByIndex[index], true
}

// GetItemByScrollPosition returns the entry whose [Position, End) contains
// offset, or the last entry when none does. It fails only on an empty cache.
func (c *Cache) GetItemByScrollPosition(offset float64) (Entry, bool) {
	c.settle()

	last := c.lastIndex()
	if last < 0 {
		return Entry{}, false
	}
	if math.IsNaN(offset) || offset < 0 {
		offset = 0
	}
	if offset >= c.total {
		return *c.itemsByIndex[last], true
	}

	// Largest slot whose top is <= offset.
	i := sort.Search(len(c.starts), func(i int) bool { return c.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	if e := c.itemsByIndex[i]; e != nil {
		return *e, true
	}

	// Offset fell in a hole: prefer the next real entry, else the previous.
	for j := i + 1; j <= last; j++ {
		if e := c.itemsByIndex[j]; e != nil {
			return *e, true
		}
	}
	for j := i - 1; j >= 0; j-- {
		if e := c.itemsByIndex[j]; e != nil {
			return *e, true
		}
	}
	return Entry{}, false
}

// GetItemScrollPosition returns the offset of key's top edge: the summed
// heights of every lower slot, holes counted at the estimate.
func (c *Cache) GetItemScrollPosition(key string) (float64, bool) {
	e, ok := c.itemsByKey[key]
	if !ok || e.Index < 0 {
		return 0, false
	}
	c.settle()
	return c.starts[e.Index], true
}

// TotalHeight returns the extent of all slots.
func (c *Cache) TotalHeight() float64 {
	c.settle()
	return c.total
}

// Dirty reports whether a position pass is outstanding.
func (c *Cache) Dirty() bool { return c.dirty }

// RecomputePositions runs the full position pass immediately.
func (c *Cache) RecomputePositions() {
	if c.pass != nil {
		c.pass.Cancel()
	}

	if cap(c.starts) < len(c.itemsByIndex) {
		c.starts = make([]float64, len(c.itemsByIndex))
	}
	c.starts = c.starts[:len(c.itemsByIndex)]

	pos := 0.0
	for i, e := range c.itemsByIndex {
		c.starts[i] = pos
		if e == nil {
			pos += c.estimatedItemHeight
			continue
		}
		e.Position = pos
		pos += e.Height
	}
	c.total = pos
	c.dirty = false
}

func (c *Cache) settle() {
	if c.dirty {
		c.RecomputePositions()
	}
}

func (c *Cache) schedulePass() {
	if c.pass == nil {
		return
	}
	c.pass.Schedule(func() {
		if c.dirty {
			c.RecomputePositions()
			log.Debug(log.CatCache, "position pass", "cache", c.key, "items", len(c.itemsByIndex), "total", c.total)
		}
	})
}

func (c *Cache) predecessorEnd(index int) float64 {
	if index == 0 {
		return 0
	}
	if prev := c.itemsByIndex[index-1]; prev != nil {
		return prev.Position + prev.Height
	}
	return float64(index) * c.estimatedItemHeight
}

func (c *Cache) growTo(n int) {
	for len(c.itemsByIndex) < n {
		c.itemsByIndex = append(c.itemsByIndex, nil)
	}
}

func (c *Cache) lastIndex() int {
	for i := len(c.itemsByIndex) - 1; i >= 0; i-- {
		if c.itemsByIndex[i] != nil {
			return i
		}
	}
	return -1
}

// Package itemcache keeps per-item sizes and derived scroll positions for one
// virtualized list. A Cache is addressed by key (explicit id or the
// position-derived fallback) and by logical index, and answers which item
// sits at a given scroll offset.
package itemcache

import "strconv"

// FallbackPrefix prefixes keys derived from an item's position.
const FallbackPrefix = "@@"

// FallbackKey returns the key used for an item rendered without an id.
func FallbackKey(index int) string {
	return FallbackPrefix + strconv.Itoa(index)
}

// Entry is one item's size record. Entries are returned by value; mutate a
// cache only through its methods.
type Entry struct {
	Key string
	// Index is the item's logical slot, or -1 when another key took the slot
	// and this entry waits to be re-indexed.
	Index    int
	Height   float64
	Measured bool
	Position float64
}

// End is the offset just past the entry.
func (e Entry) End() float64 {
	return e.Position + e.Height
}

// Contains reports whether offset falls inside [Position, End).
func (e Entry) Contains(offset float64) bool {
	return offset >= e.Position && offset < e.End()
}

// Displaced reports whether the entry currently has no slot.
func (e Entry) Displaced() bool {
	return e.Index < 0
}

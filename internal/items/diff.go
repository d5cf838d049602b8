package items

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change counts the items added and removed between two loads of a file.
type Change struct {
	Added   int
	Removed int
}

// Empty reports whether nothing was added or removed.
func (c Change) Empty() bool { return c.Added == 0 && c.Removed == 0 }

func (c Change) String() string {
	switch {
	case c.Empty():
		return "no changes"
	case c.Removed == 0:
		return fmt.Sprintf("+%d", c.Added)
	case c.Added == 0:
		return fmt.Sprintf("-%d", c.Removed)
	default:
		return fmt.Sprintf("+%d -%d", c.Added, c.Removed)
	}
}

// Diff compares two item lists by identity: the key, or the title and body
// for items without one. An edited keyless item counts as one removal and
// one addition.
func Diff(before, after []Item) Change {
	dmp := diffmatchpatch.New()
	a, b, _ := dmp.DiffLinesToChars(identities(before), identities(after))

	var c Change
	for _, d := range dmp.DiffMain(a, b, false) {
		// Each rune stands for one line, so one item.
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Added += n
		case diffmatchpatch.DiffDelete:
			c.Removed += n
		}
	}
	return c
}

func identities(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		id := it.Key
		if id == "" {
			id = "\x00" + it.Title + "\x1f" + it.Body
		}
		b.WriteString(strings.ReplaceAll(id, "\n", "\x1e"))
		b.WriteByte('\n')
	}
	return b.String()
}

package styles

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// TruncateString cuts s to maxWidth cells, ending in an ellipsis when it had
// to cut. ANSI sequences are preserved.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// Wrap word-wraps s at width and hard-wraps words longer than width.
func Wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// PadRight pads plain text with spaces to width cells. Wider text is
// returned unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

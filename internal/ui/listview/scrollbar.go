package listview

import (
	"strings"

	"github.com/zjrosen/vscroll/internal/ui/styles"
)

const (
	scrollbarThumbChar = "█"
	scrollbarTrackChar = "░"
)

// ScrollbarConfig describes the scrolled content in rows.
type ScrollbarConfig struct {
	TotalRows      int
	ViewportHeight int
	ScrollOffset   int

	TrackChar string
	ThumbChar string
}

// thumbBounds returns the first row and the height of the thumb. The thumb
// is proportional to the visible share and never shorter than one row.
func thumbBounds(cfg ScrollbarConfig) (start, height int) {
	if cfg.TotalRows <= 0 || cfg.ViewportHeight <= 0 {
		return 0, 0
	}
	if cfg.TotalRows <= cfg.ViewportHeight {
		return 0, cfg.ViewportHeight
	}

	height = max(1, cfg.ViewportHeight*cfg.ViewportHeight/cfg.TotalRows)

	maxOffset := cfg.TotalRows - cfg.ViewportHeight
	track := cfg.ViewportHeight - height
	if track <= 0 {
		return 0, height
	}

	offset := max(0, min(cfg.ScrollOffset, maxOffset))
	start = track * offset / maxOffset
	return max(0, min(start, cfg.ViewportHeight-height)), height
}

// RenderScrollbar renders ViewportHeight rows of track and thumb joined by
// newlines. Content that fits renders as blank rows.
func RenderScrollbar(cfg ScrollbarConfig) string {
	if cfg.ViewportHeight <= 0 || cfg.TotalRows <= 0 {
		return ""
	}

	rows := make([]string, cfg.ViewportHeight)
	if cfg.TotalRows <= cfg.ViewportHeight {
		for i := range rows {
			rows[i] = " "
		}
		return strings.Join(rows, "\n")
	}

	trackChar := cfg.TrackChar
	if trackChar == "" {
		trackChar = scrollbarTrackChar
	}
	thumbChar := cfg.ThumbChar
	if thumbChar == "" {
		thumbChar = scrollbarThumbChar
	}

	thumbStart, thumbHeight := thumbBounds(cfg)
	for row := range rows {
		if row >= thumbStart && row < thumbStart+thumbHeight {
			rows[row] = styles.ScrollThumbStyle.Render(thumbChar)
		} else {
			rows[row] = styles.ScrollTrackStyle.Render(trackChar)
		}
	}
	return strings.Join(rows, "\n")
}

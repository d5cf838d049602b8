package listview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestThumbBounds(t *testing.T) {
	tests := []struct {
		name       string
		cfg        ScrollbarConfig
		wantStart  int
		wantHeight int
	}{
		{"small content", ScrollbarConfig{TotalRows: 50, ViewportHeight: 30}, 0, 18},
		{"large content", ScrollbarConfig{TotalRows: 1000, ViewportHeight: 30}, 0, 1},
		{"content fits", ScrollbarConfig{TotalRows: 20, ViewportHeight: 30}, 0, 30},
		{"at bottom", ScrollbarConfig{TotalRows: 100, ViewportHeight: 10, ScrollOffset: 90}, 9, 1},
		{"middle", ScrollbarConfig{TotalRows: 100, ViewportHeight: 20, ScrollOffset: 40}, 8, 4},
		{"offset past end", ScrollbarConfig{TotalRows: 100, ViewportHeight: 10, ScrollOffset: 500}, 9, 1},
		{"empty", ScrollbarConfig{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, height := thumbBounds(tt.cfg)
			require.Equal(t, tt.wantStart, start)
			require.Equal(t, tt.wantHeight, height)
		})
	}
}

func TestRenderScrollbar(t *testing.T) {
	out := RenderScrollbar(ScrollbarConfig{TotalRows: 100, ViewportHeight: 10, TrackChar: "|", ThumbChar: "#"})
	rows := strings.Split(out, "\n")
	require.Len(t, rows, 10)
	require.Equal(t, "#", rows[0])
	require.Equal(t, "|", rows[9])

	fits := RenderScrollbar(ScrollbarConfig{TotalRows: 5, ViewportHeight: 3})
	require.Equal(t, " \n \n ", fits)

	require.Empty(t, RenderScrollbar(ScrollbarConfig{TotalRows: 5}))
}

func TestThumbBounds_StaysInTrack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := ScrollbarConfig{
			TotalRows:      rapid.IntRange(1, 10000).Draw(t, "total"),
			ViewportHeight: rapid.IntRange(1, 200).Draw(t, "viewport"),
		}
		cfg.ScrollOffset = rapid.IntRange(0, cfg.TotalRows).Draw(t, "offset")

		start, height := thumbBounds(cfg)
		if height < 1 || start < 0 || start+height > cfg.ViewportHeight {
			t.Fatalf("thumb [%d,+%d) outside track of %d", start, height, cfg.ViewportHeight)
		}
	})
}

func TestThumbBounds_MonotonicInOffset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(2, 5000).Draw(t, "total")
		viewport := rapid.IntRange(1, total-1).Draw(t, "viewport")
		a := rapid.IntRange(0, total-viewport).Draw(t, "a")
		b := rapid.IntRange(a, total-viewport).Draw(t, "b")

		sa, _ := thumbBounds(ScrollbarConfig{TotalRows: total, ViewportHeight: viewport, ScrollOffset: a})
		sb, _ := thumbBounds(ScrollbarConfig{TotalRows: total, ViewportHeight: viewport, ScrollOffset: b})
		if sb < sa {
			t.Fatalf("thumb moved up from %d to %d as offset grew %d -> %d", sa, sb, a, b)
		}
	})
}

package listview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/items"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/projection"
	"github.com/zjrosen/vscroll/internal/registry"
	"github.com/zjrosen/vscroll/internal/scroll"
	"github.com/zjrosen/vscroll/internal/ui/markdown"
	"github.com/zjrosen/vscroll/internal/ui/styles"
	"github.com/zjrosen/vscroll/internal/view"
	"github.com/zjrosen/vscroll/internal/vlist"
)

// gutterWidth is the selection marker column plus one space.
const gutterWidth = 2

// File is one item file shown by the host.
type File struct {
	Path  string
	Items []items.Item
	Err   error
}

// Config holds the host settings.
type Config struct {
	List config.ListConfig
	UI   config.UIConfig
}

type renderKey struct {
	path  string
	index int
	key   string
	width int
}

// host is the mutable side of the model: the frame loop, the terminal scroll
// surface and the virtual list projecting into it. Bubble Tea copies Model
// by value; everything here is shared through the pointer.
type host struct {
	cfg       Config
	loop      *frame.Loop
	surface   *view.ScrollModel
	container *view.StaticContainer
	list      *vlist.List

	files  []File
	active int

	width    int
	md       *markdown.Renderer
	rendered map[renderKey]string

	registered map[int]func()
	ticking    bool
}

func newHost(reg *registry.Registry, files []File, cfg Config, tracer trace.Tracer) *host {
	h := &host{
		cfg:        cfg,
		loop:       frame.NewLoop(),
		surface:    view.NewScrollModel(0),
		container:  &view.StaticContainer{},
		files:      files,
		rendered:   make(map[renderKey]string),
		registered: make(map[int]func()),
	}

	var cacheKey string
	if len(files) > 0 {
		cacheKey = files[0].Path
	}

	lc := cfg.List
	h.list = vlist.New(reg, h.container,
		vlist.WithTargetView(view.Window(h.surface)),
		vlist.WithScheduler(h.loop),
		vlist.WithCacheKey(cacheKey),
		vlist.WithEstimatedItemHeight(lc.EstimatedItemHeight),
		vlist.WithOverscanItemCount(lc.OverscanItemCount),
		vlist.WithInitialScrollPosition(lc.InitialScrollPosition),
		vlist.WithScrollRestoration(lc.ScrollRestoration),
		vlist.WithMeasureItems(lc.MeasureItems),
		vlist.WithItemsBeforeFirstProjection(lc.ItemsBeforeFirstProjection),
		vlist.WithMaxScrollIterations(lc.MaxScrollIterations),
		vlist.WithSizeObserver(view.SizeObserverFunc(observeHeight)),
		vlist.WithItemLocator(scroll.ItemLocatorFunc(h.itemTop)),
		vlist.WithTracer(tracer),
		vlist.WithOnStateChange(func(projection.State) { h.syncExtent() }),
	)
	if len(files) > 0 {
		h.list.SetItems(items.Keys(files[0].Items))
	}
	return h
}

// observeHeight measures a rendered item string once. Rendered strings never
// change size after the fact, so there is nothing to stop.
func observeHeight(handle any, fn func(height float64)) func() {
	if s, ok := handle.(string); ok {
		fn(float64(lipgloss.Height(s)))
	}
	return func() {}
}

func (h *host) file() (File, bool) {
	if h.active < 0 || h.active >= len(h.files) {
		return File{}, false
	}
	return h.files[h.active], true
}

func (h *host) item(i int) (items.Item, bool) {
	f, ok := h.file()
	if !ok || i < 0 || i >= len(f.Items) {
		return items.Item{}, false
	}
	return f.Items[i], true
}

// contentWidth is the width left for item text.
func (h *host) contentWidth() int {
	w := h.width - gutterWidth
	if h.cfg.UI.ShowScrollbar {
		w--
	}
	return max(w, 1)
}

// resize applies a new terminal size. The last row belongs to the status line.
func (h *host) resize(width, height int) {
	if width != h.width {
		h.width = width
		clear(h.rendered)
		if h.cfg.UI.Markdown {
			md, err := markdown.New(h.contentWidth(), h.cfg.UI.MarkdownStyle)
			if err != nil {
				log.ErrorErr(log.CatUI, "markdown renderer unavailable", err)
			}
			h.md = md
		}
	}
	h.surface.SetHeight(float64(max(height-1, 0)))

	if !h.list.Mounted() {
		h.list.Mount()
	}
}

// renderItem returns the item's rendered rows. Unmeasured lists clip or pad
// every item to the estimated height.
func (h *host) renderItem(i int) string {
	f, _ := h.file()
	keys := h.list.Keys()
	if i < 0 || i >= len(keys) {
		return ""
	}
	rk := renderKey{path: f.Path, index: i, key: keys[i], width: h.contentWidth()}
	if s, ok := h.rendered[rk]; ok {
		return s
	}

	it, _ := h.item(i)
	width := h.contentWidth()

	var rows []string
	if it.Title != "" && !it.Markdown {
		rows = append(rows, styles.ItemTitleStyle.Render(styles.TruncateString(it.Title, width)))
	}
	if body := h.renderBody(it, width); body != "" {
		rows = append(rows, strings.Split(body, "\n")...)
	}
	if len(rows) == 0 {
		rows = append(rows, styles.ItemKeyStyle.Render(fmt.Sprintf("(%s)", keys[i])))
	}
	// Separator row.
	rows = append(rows, "")

	if !h.cfg.List.MeasureItems {
		n := max(int(h.cfg.List.EstimatedItemHeight), 1)
		for len(rows) < n {
			rows = append(rows, "")
		}
		rows = rows[:n]
	}

	s := strings.Join(rows, "\n")
	h.rendered[rk] = s
	return s
}

func (h *host) renderBody(it items.Item, width int) string {
	if it.Body == "" {
		return ""
	}
	if it.Markdown && h.md != nil {
		out, err := h.md.Render(it.Body)
		if err == nil {
			return out
		}
		log.Warn(log.CatUI, "markdown render failed", "key", it.Key, "error", err)
	}
	return styles.ItemBodyStyle.Render(styles.Wrap(it.Body, width))
}

func (h *host) itemHeight(i int) int {
	return lipgloss.Height(h.renderItem(i))
}

// layout registers the rendered range with the list so its sizes reach the
// cache, then resizes the scroll extent.
func (h *host) layout() {
	first, last, ok := h.list.RenderRange()
	keys := h.list.Keys()

	for idx, unregister := range h.registered {
		if !ok || idx < first || idx > last {
			unregister()
			delete(h.registered, idx)
		}
	}
	if ok && h.list.Mounted() {
		for i := first; i <= last; i++ {
			h.registered[i] = h.list.RegisterItem(i, keys[i], h.renderItem(i))
		}
	}
	h.syncExtent()
}

// syncExtent sizes the surface to the cache's total height, estimates
// included.
func (h *host) syncExtent() {
	if h.list == nil {
		return
	}
	h.surface.SetScrollHeight(h.list.Cache().TotalHeight())
}

// itemTop locates a rendered item relative to the viewport top.
func (h *host) itemTop(key string) (float64, bool) {
	first, last, ok := h.list.RenderRange()
	if !ok {
		return 0, false
	}
	keys := h.list.Keys()
	top := h.list.State().PaddingTop
	for i := first; i <= last; i++ {
		if keys[i] == key {
			return top - h.surface.ScrollY(), true
		}
		top += float64(h.itemHeight(i))
	}
	return 0, false
}

// indexOf returns the index of key, or of the 1-based position when key is a
// number.
func (h *host) indexOf(key string) (int, bool) {
	keys := h.list.Keys()
	for i, k := range keys {
		if k == key {
			return i, true
		}
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(keys) {
		return n - 1, true
	}
	return 0, false
}

// topIndex is the item under the viewport's first row.
func (h *host) topIndex() (int, bool) {
	e, ok := h.list.Cache().GetItemByScrollPosition(h.surface.ScrollY())
	if !ok || e.Displaced() {
		return 0, false
	}
	return e.Index, true
}

// switchFile rebinds the list to another file's cache.
func (h *host) switchFile(idx int) {
	if len(h.files) == 0 {
		return
	}
	idx = (idx%len(h.files) + len(h.files)) % len(h.files)
	if idx == h.active {
		return
	}
	h.active = idx
	f := h.files[idx]
	h.list.Rebind(f.Path, items.Keys(f.Items))
	log.Info(log.CatUI, "switched file", "path", f.Path, "items", len(f.Items))
}

// replaceFile swaps in reloaded items for path and reports what changed.
func (h *host) replaceFile(f File) (items.Change, bool) {
	for i := range h.files {
		if h.files[i].Path != f.Path {
			continue
		}
		change := items.Diff(h.files[i].Items, f.Items)
		h.files[i] = f
		for rk := range h.rendered {
			if rk.path == f.Path {
				delete(h.rendered, rk)
			}
		}
		if i == h.active {
			h.list.SetItems(items.Keys(f.Items))
		}
		return change, true
	}
	return items.Change{}, false
}

// rows renders the viewport: height rows, each item's visible rows marked as
// one zone.
func (h *host) rows(height, selected int, mark func(id, s string) string) []string {
	out := make([]string, 0, height)
	first, last, ok := h.list.RenderRange()
	if !ok {
		return out
	}

	scrollY := int(h.surface.ScrollY())
	row := int(h.list.State().PaddingTop)
	width := h.contentWidth()

	for i := first; i <= last && row-scrollY < height; i++ {
		lines := strings.Split(h.renderItem(i), "\n")
		gutter := "  "
		if i == selected {
			gutter = styles.SelectedBarStyle.Render("▌") + " "
		}

		var visible []string
		for j, line := range lines {
			y := row + j - scrollY
			if y < 0 || y >= height {
				continue
			}
			visible = append(visible, gutter+padCells(line, width))
		}
		row += len(lines)

		if len(visible) > 0 {
			out = append(out, strings.Split(mark(zoneID(i), strings.Join(visible, "\n")), "\n")...)
		}
	}
	return out
}

func zoneID(i int) string { return fmt.Sprintf("item-%d", i) }

func padCells(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

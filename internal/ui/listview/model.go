// Package listview is the terminal host for a virtual list: it renders the
// projected item range of one or more item files into a Bubble Tea program
// and drives the list's frames, measurements and scroll surface.
package listview

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/items"
	"github.com/zjrosen/vscroll/internal/keys"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/registry"
	"github.com/zjrosen/vscroll/internal/scroll"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/ui/logoverlay"
	"github.com/zjrosen/vscroll/internal/vlist"
)

const (
	defaultFrameInterval = 16 * time.Millisecond
	wheelStep            = 3
)

type frameMsg struct{}

type fileChangedMsg struct {
	path string
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

// status is the message shown at the right of the status line.
type status struct {
	text string
	kind statusKind
}

// Option configures a Model.
type Option func(*Model)

// WithTracer records list spans on t.
func WithTracer(t trace.Tracer) Option {
	return func(m *Model) { m.tracer = t }
}

// WithChanges reloads files whose paths arrive on ch.
func WithChanges(ch <-chan string) Option {
	return func(m *Model) { m.changes = ch }
}

// WithLoader replaces how changed files are read.
func WithLoader(fn func(path string) File) Option {
	return func(m *Model) { m.loader = fn }
}

// WithLogListener feeds the log overlay from l.
func WithLogListener(l *log.LogListener) Option {
	return func(m *Model) { m.logListener = l }
}

// LoadFile reads the items of path.
func LoadFile(path string) File {
	its, err := items.Load(path)
	return File{Path: path, Items: its, Err: err}
}

// Model is the list view state.
type Model struct {
	host *host
	st   *status

	keys       keys.KeyMap
	promptKeys keys.PromptKeyMap
	help       help.Model
	showHelp   bool

	prompt    textinput.Model
	prompting bool

	logs        logoverlay.Model
	logListener *log.LogListener

	cacheEvents <-chan pubsub.Event[registry.Event]

	changes <-chan string
	loader  func(path string) File
	tracer  trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	width    int
	height   int
	selected int
}

// New creates a list view over files. The list mounts on the first window
// size message.
func New(reg *registry.Registry, files []File, cfg Config, opts ...Option) Model {
	m := Model{
		keys:       keys.DefaultKeyMap(),
		promptKeys: keys.DefaultPromptKeyMap(),
		help:       help.New(),
		logs:       logoverlay.New(),
		loader:     LoadFile,
		tracer:     tracing.NoopTracer(),
		selected:   -1,
		st:         &status{},
	}
	for _, opt := range opts {
		opt(&m)
	}

	ti := textinput.New()
	ti.Prompt = "jump: "
	ti.Placeholder = "item key or number"
	ti.CharLimit = 256
	m.prompt = ti

	m.ctx, m.cancel = context.WithCancel(context.Background())
	// Subscribe first: binding the first file may already rehydrate its cache.
	m.cacheEvents = reg.Subscribe(m.ctx)
	m.host = newHost(reg, files, cfg, m.tracer)

	for _, f := range files {
		if f.Err != nil {
			m.setStatus(fmt.Sprintf("%s: %v", filepath.Base(f.Path), f.Err), statusError)
			break
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pubsub.ListenCmd(m.ctx, m.cacheEvents)}
	if m.changes != nil {
		cmds = append(cmds, m.waitForChange())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Log lines only feed the overlay. Laying out on them would log again.
	if ev, ok := msg.(log.LogEvent); ok {
		m.logs.Add(ev.Payload)
		if m.logListener != nil {
			return m, m.logListener.Listen()
		}
		return m, nil
	}

	m, cmd := m.update(msg)
	if m.host.list.Mounted() {
		m.host.layout()
	}
	return m, tea.Batch(cmd, m.pump())
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	h := m.host

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.prompt.Width = max(msg.Width-len(m.prompt.Prompt)-1, 1)
		m.logs.SetSize(msg.Width, msg.Height)
		h.resize(msg.Width, msg.Height)
		return m, nil

	case frameMsg:
		h.ticking = false
		h.loop.Tick()
		return m, nil

	case fileChangedMsg:
		m.reload(msg.path)
		return m, m.waitForChange()

	case pubsub.Event[registry.Event]:
		m.cacheEvent(msg)
		return m, pubsub.ListenCmd(m.ctx, m.cacheEvents)

	case logoverlay.CloseMsg:
		return m, nil

	case tea.MouseMsg:
		if m.logs.Visible() || m.showHelp {
			return m, nil
		}
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		if !m.prompting && key.Matches(msg, m.keys.Logs) {
			m.logs.Toggle()
			return m, nil
		}
		if m.logs.Visible() {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}
		if m.prompting {
			return m.handlePrompt(msg)
		}
		return m.handleKey(msg)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	h := m.host
	half := max(m.viewportHeight()/2, 1)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
		m.selected = -1
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.scrollBy(half)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.scrollBy(-half)
	case key.Matches(msg, m.keys.Top):
		m.scrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		m.scrollTo(h.list.TargetView().MaxScroll())
	case key.Matches(msg, m.keys.Select):
		if idx, ok := h.topIndex(); ok {
			m.selected = idx
		}
	case key.Matches(msg, m.keys.NextFile):
		m.switchFile(h.active + 1)
	case key.Matches(msg, m.keys.PrevFile):
		m.switchFile(h.active - 1)
	case key.Matches(msg, m.keys.Jump):
		if h.list.ItemCount() == 0 {
			return m, nil
		}
		m.prompting = true
		m.prompt.Reset()
		return m, m.prompt.Focus()
	}
	return m, nil
}

func (m Model) handlePrompt(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.promptKeys.Cancel):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.promptKeys.Confirm):
		m.prompting = false
		m.prompt.Blur()
		m.jump(strings.TrimSpace(m.prompt.Value()))
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-wheelStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(wheelStep)
	case msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft:
		first, last, ok := m.host.list.RenderRange()
		if !ok {
			return m
		}
		for i := first; i <= last; i++ {
			if z := zone.Get(zoneID(i)); z != nil && z.InBounds(msg) {
				m.selected = i
				break
			}
		}
	}
	return m
}

// scrollBy moves the surface by delta rows.
func (m Model) scrollBy(delta int) {
	m.scrollTo(m.host.surface.ScrollY() + float64(delta))
}

// scrollTo is a user scroll: it ends any navigation in flight, and the
// offset is recomputed even if recent frames already saw it.
func (m Model) scrollTo(offset float64) {
	h := m.host
	h.list.Controller().Cancel()
	h.list.ClearOscillationHistory()
	h.surface.ScrollTo(offset)
}

// jump scrolls the item named by target to the viewport top.
func (m *Model) jump(target string) {
	if target == "" {
		return
	}
	h := m.host
	idx, ok := h.indexOf(target)
	if !ok {
		m.setStatus(fmt.Sprintf("no item %q", target), statusError)
		return
	}

	itemKey := h.list.Keys()[idx]
	m.selected = idx
	m.setStatus("jumping to "+itemKey, statusInfo)

	st := m.st
	h.list.ClearOscillationHistory()
	nav := h.list.ScrollToItem(m.ctx, itemKey, scroll.Options{Top: 0})
	nav.OnFinish(func(n *scroll.Navigation) {
		switch n.Phase() {
		case scroll.Done:
			*st = status{text: fmt.Sprintf("at %s", n.Key), kind: statusOK}
		case scroll.Clamped:
			*st = status{text: fmt.Sprintf("%s is near the end", n.Key), kind: statusWarn}
		default:
			*st = status{text: fmt.Sprintf("jump to %s stopped: %s", n.Key, n.Reason()), kind: statusError}
		}
	})
}

func (m *Model) switchFile(idx int) {
	prev := m.host.active
	m.host.switchFile(idx)
	if m.host.active == prev {
		return
	}
	m.selected = -1
	if f, ok := m.host.file(); ok && f.Err != nil {
		m.setStatus(fmt.Sprintf("%s: %v", filepath.Base(f.Path), f.Err), statusError)
	} else {
		m.setStatus("", statusInfo)
	}
}

func (m *Model) reload(path string) {
	f := m.loader(path)
	if f.Err != nil {
		log.ErrorErr(log.CatUI, "reload failed", f.Err, "path", path)
		m.setStatus(fmt.Sprintf("%s: %v", filepath.Base(path), f.Err), statusError)
		return
	}
	change, ok := m.host.replaceFile(f)
	if !ok {
		return
	}
	log.Info(log.CatUI, "reloaded file", "path", path, "items", len(f.Items), "added", change.Added, "removed", change.Removed)
	m.setStatus(fmt.Sprintf("reloaded %s (%s)", filepath.Base(path), change), statusOK)
	if m.host.active < len(m.host.files) && m.host.files[m.host.active].Path == path {
		m.selected = min(m.selected, len(f.Items)-1)
	}
}

// cacheEvent reports caches restored from the snapshot store.
func (m *Model) cacheEvent(ev pubsub.Event[registry.Event]) {
	if ev.Type != pubsub.RehydratedEvent {
		return
	}
	for _, f := range m.host.files {
		if f.Path == ev.Payload.Key {
			m.setStatus(fmt.Sprintf("resumed %s at row %d", filepath.Base(f.Path), int(ev.Payload.ScrollPosition)+1), statusInfo)
			return
		}
	}
}

func (m *Model) setStatus(text string, kind statusKind) {
	*m.st = status{text: text, kind: kind}
}

// pump schedules the next frame tick while the loop has work queued.
func (m Model) pump() tea.Cmd {
	h := m.host
	if h.ticking || h.loop.Pending() == 0 {
		return nil
	}
	h.ticking = true
	interval := h.cfg.UI.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}

func (m Model) viewportHeight() int {
	return int(m.host.surface.Height())
}

// Close unmounts the list so its scroll position is saved into the cache.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.host.list.Controller().Cancel()
	m.host.list.Unmount()
}

// List exposes the virtual list.
func (m Model) List() *vlist.List { return m.host.list }

// ScrollY returns the surface's scroll offset in rows.
func (m Model) ScrollY() float64 { return m.host.surface.ScrollY() }

// ActiveFile returns the file being shown.
func (m Model) ActiveFile() (File, bool) { return m.host.file() }

// Selected returns the selected item index, or -1.
func (m Model) Selected() int { return m.selected }

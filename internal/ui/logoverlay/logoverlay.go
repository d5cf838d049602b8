// Package logoverlay shows recent log lines inside the terminal host. Lines
// arrive over the log broker and are kept in a bounded buffer.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/ui/styles"
)

// DefaultCapacity is the number of lines kept.
const DefaultCapacity = 500

// CloseMsg is sent when the overlay closes itself.
type CloseMsg struct{}

// Model is the log overlay state.
type Model struct {
	visible  bool
	minLevel log.Level
	width    int
	height   int
	capacity int
	entries  []string
	viewport viewport.Model
}

// New creates a hidden overlay.
func New() Model {
	return Model{minLevel: log.LevelDebug, capacity: DefaultCapacity}
}

// Add appends a log line, dropping the oldest past capacity.
func (m *Model) Add(entry string) {
	entry = strings.TrimSuffix(entry, "\n")
	if entry == "" {
		return
	}
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	if m.visible {
		m.refresh()
		m.viewport.GotoBottom()
	}
}

// Len returns the number of buffered lines.
func (m Model) Len() int { return len(m.entries) }

// Update handles keys while visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "c":
			m.entries = nil
			m.refresh()
		case "d":
			m.setLevel(log.LevelDebug)
		case "i":
			m.setLevel(log.LevelInfo)
		case "w":
			m.setLevel(log.LevelWarn)
		case "e":
			m.setLevel(log.LevelError)
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		case "esc", "L":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the overlay box, or nothing while hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	w := m.boxWidth()
	divider := lipgloss.NewStyle().Foreground(styles.BorderDefaultColor).Render(strings.Repeat("─", w))

	var b strings.Builder
	b.WriteString(styles.SectionTitleStyle.PaddingLeft(1).Render("Logs"))
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(m.filterHint())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Width(w).
		Render(b.String())
}

// Visible reports whether the overlay shows.
func (m Model) Visible() bool { return m.visible }

// Toggle flips visibility.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refresh()
		m.viewport.GotoBottom()
	}
}

// SetSize records the screen size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refresh()
}

func (m *Model) setLevel(l log.Level) {
	m.minLevel = l
	m.refresh()
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, 160), 20)
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentWidth := m.boxWidth() - 2
	// Header, footer and borders take six rows.
	h := max(m.height-6, 3)
	m.viewport = viewport.New(contentWidth, h)
	m.viewport.SetContent(m.content(contentWidth))
}

func (m Model) content(width int) string {
	var lines []string
	for _, e := range m.entries {
		if levelOf(e) < m.minLevel {
			continue
		}
		if ansi.StringWidth(e) > width {
			e = ansi.Truncate(e, width, "...")
		}
		lines = append(lines, styleOf(e).Render(e))
	}
	if len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).Render("No logs to display")
	}
	return strings.Join(lines, "\n")
}

func (m Model) filterHint() string {
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	parts := []string{hint.Render("[c] Clear")}
	for _, f := range []struct {
		level log.Level
		label string
	}{
		{log.LevelDebug, "[d] Debug"},
		{log.LevelInfo, "[i] Info"},
		{log.LevelWarn, "[w] Warn"},
		{log.LevelError, "[e] Error"},
	} {
		if f.level == m.minLevel {
			parts = append(parts, active.Render(f.label))
		} else {
			parts = append(parts, hint.Render(f.label))
		}
	}
	return strings.Join(parts, "  ")
}

// levelOf reads the level tag of a formatted log line. Untagged lines count
// as errors so they are never filtered.
func levelOf(entry string) log.Level {
	for _, l := range []log.Level{log.LevelDebug, log.LevelInfo, log.LevelWarn} {
		if strings.Contains(entry, l.Tag()) {
			return l
		}
	}
	return log.LevelError
}

func styleOf(entry string) lipgloss.Style {
	switch levelOf(entry) {
	case log.LevelDebug:
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	case log.LevelInfo:
		return lipgloss.NewStyle().Foreground(styles.AccentColor)
	case log.LevelWarn:
		return lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	default:
		return lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	}
}

package listview

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/vscroll/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.logs.Visible() {
		return m.logs.View()
	}

	height := m.viewportHeight()
	var body string
	if m.showHelp {
		body = m.helpView(height)
	} else {
		body = m.listView(height)
	}

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine()))
}

func (m Model) listView(height int) string {
	h := m.host
	if height <= 0 {
		return ""
	}

	var rows []string
	if h.list.ItemCount() == 0 {
		rows = []string{styles.ItemKeyStyle.Render("  no items")}
	} else {
		rows = h.rows(height, m.selected, zone.Mark)
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	rows = rows[:height]
	list := strings.Join(rows, "\n")

	if !h.cfg.UI.ShowScrollbar {
		return list
	}
	bar := RenderScrollbar(ScrollbarConfig{
		TotalRows:      int(h.surface.ScrollHeight()),
		ViewportHeight: height,
		ScrollOffset:   int(h.surface.ScrollY()),
	})
	if bar == "" {
		return list
	}
	left := lipgloss.NewStyle().Width(h.width - 1).Render(list)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, bar)
}

func (m Model) helpView(height int) string {
	groups := m.keys.FullHelp()
	var content []string
	for i, group := range groups {
		if i > 0 {
			content = append(content, "")
		}
		for _, b := range group {
			content = append(content, fmt.Sprintf("  %-10s %s",
				b.Help().Key, styles.ItemBodyStyle.Render(b.Help().Desc)))
		}
	}
	section := styles.RenderSection(content, "Keys", min(m.width, 48))
	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(section)
}

func (m Model) statusLine() string {
	if m.prompting {
		return m.prompt.View()
	}

	h := m.host
	var left []string
	if f, ok := h.file(); ok {
		name := filepath.Base(f.Path)
		if len(h.files) > 1 {
			name = fmt.Sprintf("%s (%d/%d)", name, h.active+1, len(h.files))
		}
		left = append(left, styles.StatusFileStyle.Render(name))
	}

	n := h.list.ItemCount()
	if first, last, ok := h.list.RenderRange(); ok {
		left = append(left, styles.StatusBarStyle.Render(fmt.Sprintf("%d-%d/%d", first+1, last+1, n)))
	} else {
		left = append(left, styles.StatusBarStyle.Render(fmt.Sprintf("0/%d", n)))
	}
	left = append(left, styles.StatusBarStyle.Render(fmt.Sprintf("%3d%%", m.percent())))

	if st := *m.st; st.text != "" {
		left = append(left, statusStyle(st.kind).Render(st.text))
	} else {
		left = append(left, m.help.ShortHelpView(m.keys.ShortHelp()))
	}

	return styles.TruncateString(strings.Join(left, "  "), m.width)
}

// percent is how far the viewport is through the content.
func (m Model) percent() int {
	v := m.host.list.TargetView()
	maxScroll := v.MaxScroll()
	if maxScroll <= 0 {
		return 100
	}
	return int(v.ScrollY() * 100 / maxScroll)
}

func statusStyle(k statusKind) lipgloss.Style {
	switch k {
	case statusOK:
		return styles.StatusOKStyle
	case statusWarn:
		return styles.StatusWarnStyle
	case statusError:
		return styles.StatusErrorStyle
	default:
		return styles.StatusBarStyle
	}
}

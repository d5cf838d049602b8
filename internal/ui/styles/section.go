package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderSection draws content inside a rounded border of the given width with
// the title inlined in the top edge: ╭─ Title ───╮
func RenderSection(content []string, title string, width int) string {
	borderStyle := lipgloss.NewStyle().Foreground(BorderDefaultColor)
	innerWidth := max(width-2, 1)

	var top string
	if title == "" {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		title = TruncateString(title, max(innerWidth-3, 1))
		dashes := max(innerWidth-lipgloss.Width(title)-3, 0)
		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") +
			SectionTitleStyle.Render(title) +
			borderStyle.Render(" "+strings.Repeat(borderHorizontal, dashes)+borderTopRight)
	}

	lines := make([]string, 0, len(content)+2)
	lines = append(lines, top)
	for _, row := range content {
		row = TruncateString(row, innerWidth)
		pad := strings.Repeat(" ", max(innerWidth-lipgloss.Width(row), 0))
		lines = append(lines, borderStyle.Render(borderVertical)+row+pad+borderStyle.Render(borderVertical))
	}
	lines = append(lines, borderStyle.Render(borderBottomLeft+strings.Repeat(borderHorizontal, innerWidth)+borderBottomRight))

	return strings.Join(lines, "\n")
}

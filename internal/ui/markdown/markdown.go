// Package markdown renders markdown items for the terminal host.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// noMarginStyle removes document margins on top of the chosen style.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps glamour with vscroll's configuration.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string
}

// New creates a renderer wrapping at width. style is a glamour standard style
// name ("dark", "light", "notty"); empty picks one from the terminal.
func New(width int, style string) (*Renderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width, style: style}, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Style returns the configured style name.
func (r *Renderer) Style() string {
	return r.style
}

// Render transforms markdown to styled terminal output without trailing
// blank lines.
func (r *Renderer) Render(markdown string) (string, error) {
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#696969"}
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#696969"}
	AccentColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"}
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#B08800", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	ItemTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	ItemBodyStyle     = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	ItemKeyStyle      = lipgloss.NewStyle().Foreground(TextMutedColor)
	SelectedBarStyle  = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	StatusBarStyle    = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	StatusFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	StatusErrorStyle  = lipgloss.NewStyle().Foreground(StatusErrorColor)
	StatusOKStyle     = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	StatusWarnStyle   = lipgloss.NewStyle().Foreground(StatusWarningColor)
	ScrollTrackStyle  = lipgloss.NewStyle().Foreground(TextMutedColor)
	ScrollThumbStyle  = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	PromptLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	SectionTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
)

// Package cli provides styled terminal output for the rulesmith commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#7D56F4")
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")
	BorderColor  = lipgloss.Color("#333333")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle frames single-entity detail views.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(BorderColor)
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	RuleIcon    = "📜"
)

// StatusStyle colors a lifecycle status: waiting states warn, accepted
// states succeed, rejections fail and hand-offs fade.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "pending", "open":
		return WarningStyle
	case "approved", "accepted", "completed":
		return SuccessStyle
	case "rejected":
		return ErrorStyle
	case "transferred", "reverted_to_enhancement":
		return SubtleStyle
	default:
		return lipgloss.NewStyle()
	}
}

func FormatSuccess(message string) string { return SuccessStyle.Render(SuccessIcon + " " + message) }
func FormatError(message string) string   { return ErrorStyle.Render(ErrorIcon + " " + message) }
func FormatWarning(message string) string { return WarningStyle.Render(WarningIcon + " " + message) }
func FormatInfo(message string) string    { return InfoStyle.Render(InfoIcon + " " + message) }

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(RuleIcon + " " + title)
}

// RenderBox renders content in a bordered box under title.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}

// Package ui provides the NoReveal status screen and its styling
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red

	ColorText      = lipgloss.Color("252") // Light gray
	ColorDim       = lipgloss.Color("247")
	ColorSubtle    = lipgloss.Color("240") // Medium gray
	ColorMuted     = lipgloss.Color("238") // Dark gray
	ColorHighlight = lipgloss.Color("255") // White
)

var (
	NameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	ControlDescStyle = lipgloss.NewStyle().
				Foreground(ColorSubtle)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	TimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Status indicators
var (
	IndicatorBlocking = SuccessStyle.Render("●")
	IndicatorPaused   = WarningStyle.Render("◐")
	IndicatorIdle     = SubtleStyle.Render("○")
	IndicatorStopped  = ErrorStyle.Render("■")
)

// FormatControl renders a key hint like "[t] toggle"
func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render("["+key+"]") + " " + ControlDescStyle.Render(desc)
}

// FormatMessage styles a transient message by its type
func FormatMessage(msgType, message string) string {
	switch msgType {
	case "error":
		return ErrorStyle.Render(message)
	case "warning":
		return WarningStyle.Render(message)
	case "success":
		return SuccessStyle.Render(message)
	default:
		return DimStyle.Render(message)
	}
}

// LevelStyle returns the style for a log level name
func LevelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR", "FATAL":
		return ErrorStyle
	case "WARN", "WARNING":
		return WarningStyle
	case "INFO":
		return SuccessStyle
	case "DEBUG":
		return SubtleStyle
	default:
		return DimStyle
	}
}

// Separator joins status bar parts
func Separator() string {
	return SeparatorStyle.Render(" │ ")
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}
	return SeparatorStyle.Render(strings.Repeat(char, width))
}

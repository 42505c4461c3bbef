package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatControl(t *testing.T) {
	tests := []struct {
		name string
		key  string
		desc string
	}{
		{name: "toggle", key: "t", desc: "toggle"},
		{name: "quit", key: "q", desc: "quit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatControl(tt.key, tt.desc)
			assert.Contains(t, got, "["+tt.key+"]")
			assert.Contains(t, got, tt.desc)
		})
	}
}

func TestFormatMessage(t *testing.T) {
	for _, kind := range []string{"error", "warning", "success", "info", ""} {
		assert.Contains(t, FormatMessage(kind, "hello"), "hello", kind)
	}
}

func TestLevelStyle(t *testing.T) {
	assert.Equal(t, ErrorStyle.Render("x"), LevelStyle("error").Render("x"))
	assert.Equal(t, WarningStyle.Render("x"), LevelStyle("Warning").Render("x"))
	assert.Equal(t, SubtleStyle.Render("x"), LevelStyle("debug").Render("x"))
	assert.Equal(t, DimStyle.Render("x"), LevelStyle("trace").Render("x"))
}

func TestCreateSeparator(t *testing.T) {
	tests := []struct {
		name  string
		width int
		char  string
		want  int
	}{
		{name: "explicit", width: 10, char: "=", want: 10},
		{name: "default width", width: 0, char: "-", want: 50},
		{name: "default char", width: 5, char: "", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSeparator(tt.width, tt.char)
			assert.Equal(t, tt.want, lipgloss.Width(got))
		})
	}
}

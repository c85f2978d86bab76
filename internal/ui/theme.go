package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/flashdrop/internal/config"
)

type styleKind int

const (
	styleOK styleKind = iota
	styleFail
	styleWarn
	styleMuted
)

// Catppuccin Mocha palette; config can override.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorMuted  = lipgloss.Color("#5a6278")
)

var styles [styleMuted + 1]lipgloss.Style

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styles[styleOK] = lipgloss.NewStyle().Foreground(ColorGreen)
	styles[styleFail] = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	styles[styleWarn] = lipgloss.NewStyle().Foreground(ColorYellow)
	styles[styleMuted] = lipgloss.NewStyle().Foreground(ColorMuted)
}

// ApplyTheme overrides colors from a config ThemeConfig and rebuilds all styles.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Green != nil {
		ColorGreen = lipgloss.Color(*tc.Green)
	}
	if tc.Red != nil {
		ColorRed = lipgloss.Color(*tc.Red)
	}
	if tc.Yellow != nil {
		ColorYellow = lipgloss.Color(*tc.Yellow)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	rebuildStyles()
}

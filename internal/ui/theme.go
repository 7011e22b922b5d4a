package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// Terminal theme for the sq CLI. Kept intentionally small: a palette
// per theme preference and a few reusable render helpers.

// Palette holds the colors for one theme preference.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Good    lipgloss.Color
	Warn    lipgloss.Color
	Bad     lipgloss.Color
	Muted   lipgloss.Color
}

var (
	darkPalette = Palette{
		Primary: lipgloss.Color("63"),  // blue
		Accent:  lipgloss.Color("205"), // magenta
		Good:    lipgloss.Color("42"),  // green
		Warn:    lipgloss.Color("214"), // orange
		Bad:     lipgloss.Color("196"), // red
		Muted:   lipgloss.Color("244"), // gray
	}

	lightPalette = Palette{
		Primary: lipgloss.Color("26"),  // darker blue
		Accent:  lipgloss.Color("127"), // darker magenta
		Good:    lipgloss.Color("28"),  // darker green
		Warn:    lipgloss.Color("130"), // darker orange
		Bad:     lipgloss.Color("124"), // darker red
		Muted:   lipgloss.Color("240"), // darker gray
	}
)

// Theme bundles the styles for one theme preference.
type Theme struct {
	palette Palette

	Title  lipgloss.Style
	Key    lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style

	Panel lipgloss.Style
}

// ForMode returns the theme for a preference. ThemeSystem maps to the
// dark palette; terminal background detection is not worth the dance.
func ForMode(mode model.ThemeMode) *Theme {
	p := darkPalette
	if mode == model.ThemeLight {
		p = lightPalette
	}

	return &Theme{
		palette: p,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Key:     lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Good:    lipgloss.NewStyle().Bold(true).Foreground(p.Good),
		Warn:    lipgloss.NewStyle().Bold(true).Foreground(p.Warn),
		Bad:     lipgloss.NewStyle().Bold(true).Foreground(p.Bad),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Accent:  lipgloss.NewStyle().Foreground(p.Accent),
		Panel:   lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Muted).Padding(0, 1),
	}
}

// RenderPass renders a success line.
func (t *Theme) RenderPass(text string) string {
	return t.Good.Render("✓ " + text)
}

// RenderWarn renders a warning line.
func (t *Theme) RenderWarn(text string) string {
	return t.Warn.Render("! " + text)
}

// RenderAccent renders emphasized text.
func (t *Theme) RenderAccent(text string) string {
	return t.Accent.Render(text)
}

// Heading renders a bold section title.
func (t *Theme) Heading(title string) string {
	return t.Title.Render(title)
}

// LabelValue renders a "Label: value" pair with the label emphasized.
func (t *Theme) LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", t.Key.Render(label+":"), value)
}

// StatusText renders a task status in its signal color.
func (t *Theme) StatusText(status model.TaskStatus) string {
	switch status {
	case model.StatusCompleted:
		return t.Good.Render("completed")
	case model.StatusRejected:
		return t.Muted.Render("rejected")
	default:
		return t.Muted.Render(strings.ToLower(string(status)))
	}
}

// ConnectivityText renders the online flag for the status command.
func (t *Theme) ConnectivityText(online bool) string {
	if online {
		return t.Good.Render("online")
	}
	return t.Warn.Render("offline")
}

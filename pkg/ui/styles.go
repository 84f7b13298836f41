package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the colors a theme assigns to each role
type Palette struct {
	Primary lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor // manual tags
	Tag     lipgloss.TerminalColor // ai tags
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Muted   lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
}

var palettes = map[string]Palette{
	"auto": {
		Primary: lipgloss.AdaptiveColor{Light: "5", Dark: "13"},
		Accent:  lipgloss.AdaptiveColor{Light: "4", Dark: "12"},
		Tag:     lipgloss.AdaptiveColor{Light: "6", Dark: "14"},
		Success: lipgloss.AdaptiveColor{Light: "2", Dark: "10"},
		Warning: lipgloss.AdaptiveColor{Light: "3", Dark: "11"},
		Error:   lipgloss.AdaptiveColor{Light: "1", Dark: "9"},
		Muted:   lipgloss.AdaptiveColor{Light: "8", Dark: "8"},
		Text:    lipgloss.AdaptiveColor{Light: "0", Dark: "7"},
	},
	"dark": {
		Primary: lipgloss.Color("13"),
		Accent:  lipgloss.Color("12"),
		Tag:     lipgloss.Color("14"),
		Success: lipgloss.Color("10"),
		Warning: lipgloss.Color("11"),
		Error:   lipgloss.Color("9"),
		Muted:   lipgloss.Color("8"),
		Text:    lipgloss.Color("7"),
	},
	"light": {
		Primary: lipgloss.Color("5"),
		Accent:  lipgloss.Color("4"),
		Tag:     lipgloss.Color("6"),
		Success: lipgloss.Color("2"),
		Warning: lipgloss.Color("3"),
		Error:   lipgloss.Color("1"),
		Muted:   lipgloss.Color("8"),
		Text:    lipgloss.Color("0"),
	},
}

var (
	ColorPrimary lipgloss.TerminalColor
	ColorMuted   lipgloss.TerminalColor

	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StylePrimary lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleAccent  lipgloss.Style

	StyleTitle  lipgloss.Style
	StyleHeader lipgloss.Style
	StyleSubtle lipgloss.Style
	StyleBold   lipgloss.Style

	StyleTableHeader lipgloss.Style
	StyleTableRow    lipgloss.Style
	StyleTableRowAlt lipgloss.Style
	StyleTableBorder lipgloss.Style

	// Tag chips, by tag source
	StyleTag       lipgloss.Style
	StyleTagManual lipgloss.Style
)

const (
	IconSuccess = "✔"
	IconError   = "✘"
	IconScan    = "🔍"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconImage   = "🖼"
	IconTag     = "🏷"
	IconManual  = "✎"
)

func init() {
	SetTheme("auto")
}

// SetTheme switches the palette. Unknown names fall back to "auto".
func SetTheme(theme string) {
	p, ok := palettes[theme]
	if !ok {
		theme = "auto"
		p = palettes[theme]
	}
	switch theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
	applyPalette(p)
}

func applyPalette(p Palette) {
	ColorPrimary = p.Primary
	ColorMuted = p.Muted

	StyleSuccess = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	StyleError = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	StylePrimary = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	StyleInfo = lipgloss.NewStyle().Foreground(p.Tag)
	StyleMuted = lipgloss.NewStyle().Foreground(p.Muted)
	StyleWarning = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	StyleAccent = lipgloss.NewStyle().Foreground(p.Accent)

	StyleTitle = StylePrimary.Underline(true)
	StyleHeader = StylePrimary
	StyleSubtle = StyleMuted.Italic(true)
	StyleBold = lipgloss.NewStyle().Bold(true)

	StyleTableHeader = StylePrimary.Align(lipgloss.Left)
	StyleTableRow = lipgloss.NewStyle().Foreground(p.Text)
	StyleTableRowAlt = StyleTableRow.Faint(true)
	StyleTableBorder = StyleMuted

	StyleTag = lipgloss.NewStyle().Foreground(p.Tag)
	StyleTagManual = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
}

// FormatSuccess returns a success message with icon
func FormatSuccess(msg string) string {
	return StyleSuccess.Render(IconSuccess + " " + msg)
}

// FormatError returns an error message with icon
func FormatError(msg string) string {
	return StyleError.Render(IconError + " " + msg)
}

func FormatInfo(msg string) string {
	return StyleInfo.Render(IconInfo + " " + msg)
}

func FormatWarning(msg string) string {
	return StyleWarning.Render(IconWarning + " " + msg)
}

// FormatScan marks catalog scanning progress
func FormatScan(msg string) string {
	return StylePrimary.Render(IconScan + " " + msg)
}

// FormatTags renders tags as "a · b · c"; manual tags get the accent style
func FormatTags(tags []string, manual bool) string {
	if len(tags) == 0 {
		return StyleMuted.Render("-")
	}
	style := StyleTag
	if manual {
		style = StyleTagManual
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = style.Render(t)
	}
	return strings.Join(parts, StyleMuted.Render(" · "))
}

// FormatSource returns a short provenance marker
func FormatSource(source string) string {
	if source == "manual" {
		return StyleAccent.Render(IconManual + " manual")
	}
	return StyleMuted.Render("ai")
}

func FormatTitle(title string) string {
	return StyleTitle.Render(title)
}

func FormatMuted(text string) string {
	return StyleMuted.Render(text)
}

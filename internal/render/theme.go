package render

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used when formatting fragments.
//
// Conforming values are small and grayed out; non-conforming values are
// loud and red, matching the MRQART page.
type Theme struct {
	Station    lipgloss.Style
	Conform    lipgloss.Style
	NonConform lipgloss.Style
	Header     lipgloss.Style
	Deviation  lipgloss.Style
	Cursor     lipgloss.Style
	Status     lipgloss.Style
}

// DefaultTheme returns the terminal theme (ANSI 256 colors).
func DefaultTheme() Theme {
	return Theme{
		Station:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		Conform:    lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("245")),
		NonConform: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Header:     lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("252")),
		Deviation:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Cursor:     lipgloss.NewStyle().Reverse(true),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// PlainTheme returns a theme with no styling at all.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Station:    plain,
		Conform:    plain,
		NonConform: plain,
		Header:     plain,
		Deviation:  plain,
		Cursor:     plain,
		Status:     plain,
	}
}

package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	markerCollapsed = "[+]"
	markerExpanded  = "[-]"
	indent          = "    "
	flagIndent      = "  ! "
	columnGap       = "  "
)

// Formatter turns fragments into terminal text.
type Formatter struct {
	Theme Theme
}

// NewFormatter creates a Formatter with the given theme.
func NewFormatter(theme Theme) Formatter {
	return Formatter{Theme: theme}
}

// Fragment formats a fragment in its initial disclosure state.
func (f Formatter) Fragment(frag Fragment) string {
	return f.FragmentAs(frag, frag.Expanded)
}

// FragmentAs formats a fragment expanded or collapsed regardless of its
// initial state.
func (f Formatter) FragmentAs(frag Fragment, expanded bool) string {
	summary := f.SummaryLine(frag, expanded)
	if !expanded {
		return summary
	}
	return summary + "\n" + f.Details(frag)
}

// SummaryLine formats the disclosure marker and series identity.
func (f Formatter) SummaryLine(frag Fragment, expanded bool) string {
	marker := markerCollapsed
	if expanded {
		marker = markerExpanded
	}

	parts := []string{marker}
	for _, s := range []string{frag.Summary.SeriesNumber, frag.Summary.SequenceName, frag.Summary.Project} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	line := strings.Join(parts, " ")
	if frag.Conforms {
		return f.Theme.Conform.Render(line)
	}
	return f.Theme.NonConform.Render(line)
}

// Details formats the deviation lines followed by the detail table.
func (f Formatter) Details(frag Fragment) string {
	var lines []string

	for _, d := range frag.Deviations {
		lines = append(lines, indent+f.Theme.Deviation.Render(
			d.Param+" should be "+d.Expect+" but have "+d.Have))
	}

	paramWidth := lipgloss.Width("param")
	inputWidth := lipgloss.Width("input")
	for _, row := range frag.Table {
		paramWidth = max(paramWidth, lipgloss.Width(row.Param))
		inputWidth = max(inputWidth, lipgloss.Width(row.Input))
	}

	header := pad("param", paramWidth) + columnGap + pad("input", inputWidth) + columnGap + "template"
	lines = append(lines, indent+f.Theme.Header.Render(header))

	for _, row := range frag.Table {
		text := pad(row.Param, paramWidth) + columnGap + pad(row.Input, inputWidth) + columnGap + row.Template
		if row.Flagged {
			lines = append(lines, flagIndent+f.Theme.NonConform.Render(text))
			continue
		}
		lines = append(lines, indent+f.Theme.Conform.Render(text))
	}

	return strings.Join(lines, "\n")
}

// Station formats a station heading followed by its fragments, newest
// first as given.
func (f Formatter) Station(id string, frags []Fragment) string {
	lines := []string{f.Theme.Station.Render("== " + id + " ==")}
	for _, frag := range frags {
		lines = append(lines, f.Fragment(frag))
	}
	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

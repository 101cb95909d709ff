package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// styles renders console output. The zero value prints plain text.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	node    lipgloss.Style
	edge    lipgloss.Style
	state   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
}

var (
	colorAccent  = lipgloss.Color("#2CD7C7")
	colorNode    = lipgloss.Color("#20B9B4")
	colorEdge    = lipgloss.Color("#F4D03F")
	colorWarning = lipgloss.Color("#E67E22")
	colorMuted   = lipgloss.Color("#5C7A84")
)

func plainStyles() styles {
	s := lipgloss.NewStyle()

	return styles{title: s, label: s, node: s, edge: s, state: s, success: s, warn: s, muted: s}
}

// stylesFor returns coloured styles when w is a terminal and plain ones
// otherwise, so redirected output stays free of escape codes.
func stylesFor(w io.Writer) styles {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return plainStyles()
	}

	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		label:   lipgloss.NewStyle().Bold(true),
		node:    lipgloss.NewStyle().Foreground(colorNode),
		edge:    lipgloss.NewStyle().Foreground(colorEdge),
		state:   lipgloss.NewStyle().Faint(true),
		success: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		warn:    lipgloss.NewStyle().Foreground(colorWarning),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

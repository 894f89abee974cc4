package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-sleep-monitor/internal/util"
)

const (
	defaultTerminalWidth = 80
	minTerminalWidth     = 40
)

// Package-level Sizer shared by the formatters
var sharedSizer = &Sizer{}

// Shared returns the package-level Sizer.
func Shared() *Sizer {
	return sharedSizer
}

type Sizer struct {
}

// DisplayWidth returns the number of terminal cells s occupies.
func (i Sizer) DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadString pads a string to a specific display width, handling wide runes correctly
func (i Sizer) PadString(s string, width int, leftAlign bool) string {
	actualWidth := i.DisplayWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// Truncate shortens s to width cells, marking the cut with "…".
func (i Sizer) Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// TerminalWidth returns the width of the terminal on fd, or a default when fd
// is not a terminal.
func (i Sizer) TerminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < minTerminalWidth {
		util.LogDebugf("Terminal width unavailable (%d, %v), using %d", width, err, defaultTerminalWidth)
		return defaultTerminalWidth
	}
	return width
}

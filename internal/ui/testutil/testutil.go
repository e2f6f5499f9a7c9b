// Package testutil provides helpers for asserting on rendered terminal
// output.
package testutil

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Plain strips ANSI styling from s.
func Plain(s string) string {
	return ansi.Strip(s)
}

// Lines returns the unstyled lines of s, without trailing blank lines.
func Lines(s string) []string {
	lines := strings.Split(Plain(s), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// FindLine returns the first unstyled line containing substr, or "".
func FindLine(s, substr string) string {
	for _, line := range Lines(s) {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

// Widths returns the display width of every line of s.
func Widths(s string) []int {
	lines := strings.Split(s, "\n")
	widths := make([]int, len(lines))
	for i, l := range lines {
		widths[i] = ansi.StringWidth(l)
	}
	return widths
}

// MaxWidth returns the widest line of s in cells.
func MaxWidth(s string) int {
	w := 0
	for _, lw := range Widths(s) {
		w = max(w, lw)
	}
	return w
}

package outwriter

import (
	"os"

	"github.com/huangsam/climacomp/internal/contract"
	"golang.org/x/term"
)

// getMaxTableNameWidth returns how wide the station column of a table may be,
// based on the terminal width and the fixed columns.
func getMaxTableNameWidth(cfg *contract.RunConfig, fixedWidth int) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detected
		}
	}

	// Borders, separators and padding
	available := termWidth - fixedWidth - 20
	if available < 8 {
		return 8
	}
	if available > 40 {
		return 40
	}
	return available
}

// truncateName shortens s to at most width runes, marking the cut with "...".
func truncateName(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ProgressBarWidth sizes a progress bar to a third of the terminal,
// clamped to [20, 60]. Falls back to 40 when stdout is not a terminal.
func ProgressBarWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 40
	}
	return min(max(width/3, 20), 60)
}

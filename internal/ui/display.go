package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is used when output is not a terminal or its size is
// unknown.
const DefaultTermWidth = 100

// Terminal describes where rendered output is going.
type Terminal struct {
	Width       int
	Interactive bool
}

// DetectTerminal inspects f. Redirected output reports Interactive false and
// the default width.
func DetectTerminal(f *os.File) Terminal {
	fd := f.Fd()
	t := Terminal{Width: DefaultTermWidth, Interactive: IsTerminal(fd)}
	if !t.Interactive {
		return t
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		t.Width = w
	}
	return t
}

// IsTerminal also accepts Cygwin and MSYS pseudo terminals.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

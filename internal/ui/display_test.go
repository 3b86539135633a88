package ui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectTerminalRedirected(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got := DetectTerminal(f)
	if got.Interactive {
		t.Error("a regular file is not a terminal")
	}
	if got.Width != DefaultTermWidth {
		t.Errorf("Width = %d, want %d", got.Width, DefaultTermWidth)
	}
}

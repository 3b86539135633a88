package slugs

import (
	"testing"
	"time"
)

func TestComponentSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Event Bus", "event-bus"},
		{"UPPERCASE", "uppercase"},
		{"", "entity"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ComponentSlug(tt.input); got != tt.want {
				t.Errorf("ComponentSlug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.FixedZone("CET", 3600))
	got := ArchiveName("Event Bus", at)
	if got != "event-bus-20240309T130506Z" {
		t.Errorf("ArchiveName = %q", got)
	}
}

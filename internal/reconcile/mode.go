package reconcile

import (
	"fmt"
	"strings"
)

// Mode selects what a generate pass does.
type Mode string

const (
	ModeValidate    Mode = "validate"
	ModeIncremental Mode = "incremental"
	ModeFull        Mode = "full"
)

// Modes lists the accepted generate modes.
var Modes = []Mode{ModeValidate, ModeIncremental, ModeFull}

// ParseMode converts a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown generate mode %q (want validate, incremental or full)", s)
}

func (m Mode) String() string { return string(m) }

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string { return "mode" }

// CleanupMode controls what happens to a removed entity's directory.
type CleanupMode string

const (
	CleanupArchive  CleanupMode = "archive"
	CleanupDelete   CleanupMode = "delete"
	CleanupPreserve CleanupMode = "preserve"
)

// CleanupModes lists the accepted cleanup modes.
var CleanupModes = []CleanupMode{CleanupArchive, CleanupDelete, CleanupPreserve}

// ParseCleanupMode converts a cleanup mode name, ignoring case.
func ParseCleanupMode(s string) (CleanupMode, error) {
	for _, m := range CleanupModes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown cleanup mode %q (want archive, delete or preserve)", s)
}

func (m CleanupMode) String() string { return string(m) }

// Set implements pflag.Value.
func (m *CleanupMode) Set(s string) error {
	parsed, err := ParseCleanupMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *CleanupMode) Type() string { return "cleanup" }

package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// Enum flags parse and reject values when the flag is set.
var (
	_ pflag.Value = (*reconcile.Mode)(nil)
	_ pflag.Value = (*reconcile.CleanupMode)(nil)
)

// openService opens the resolved project. Callers must Close it.
func openService() (*arch.Service, error) {
	path := getProjectPath()
	if path == "" {
		return nil, fmt.Errorf("no project specified")
	}
	return arch.Open(path, arch.Options{Debug: debugOutput})
}

// withService opens the project, runs fn and closes the project. Open
// failures are reported like any other service error.
func withService(fn func(svc *arch.Service) error) error {
	svc, err := openService()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "Check arbor.yaml and classifications.yaml")
	}
	defer svc.Close()
	return fn(svc)
}

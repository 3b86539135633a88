package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/buildinfo"
)

const defaultModulePath = "github.com/aidanlsb/arbor"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	BuiltAt    string `json:"built_at,omitempty"`
	Dirty      bool   `json:"dirty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// readBuildInfo is swapped out in tests.
var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show arbor version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()
		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}
		fmt.Printf("arb %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
		if info.Commit != "" {
			dirty := ""
			if info.Dirty {
				dirty = "-dirty"
			}
			fmt.Printf("commit %s%s %s\n", info.Commit, dirty, info.BuiltAt)
		}
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    buildinfo.VersionString(),
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Commit:     buildinfo.Commit,
		BuiltAt:    buildinfo.Date,
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}
	if bi.Main.Path != "" {
		info.ModulePath = bi.Main.Path
	}
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	if info.Commit == "" {
		info.Commit = settings["vcs.revision"]
	}
	if info.BuiltAt == "" {
		info.BuiltAt = settings["vcs.time"]
	}
	info.Dirty = strings.EqualFold(settings["vcs.modified"], "true")
	return info
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

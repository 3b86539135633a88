// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/config"
	"github.com/aidanlsb/arbor/internal/ui"
)

var (
	// Global flags
	projectName     string // Named project from config
	projectPathFlag string // Explicit path
	configPath      string
	debugOutput     bool

	// Resolved values
	resolvedProjectPath string
	resolvedConfigPath  string
	cfg                 *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "arb",
	Short: "arbor - keep a project's directories in line with its architecture tree",
	Long: `arbor reads a canonical architecture tree (a markdown file of numbered
domains, objects and layers), validates it, and reconciles the project's
directory layout with it.

The tree is the only source of truth: add and remove entities through arbor
and let it create, archive or delete the matching directories.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		resolvedConfigPath = config.ResolveConfigPath(configPath)
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		if cfg.Debug {
			debugOutput = true
		}

		// Skip project resolution for commands that don't need it
		switch cmd.Name() {
		case "init", "completion", "help", "version":
			return nil
		}

		resolvedProjectPath, err = resolveProjectPath(cfg)
		if err != nil {
			return err
		}
		if _, err := os.Stat(resolvedProjectPath); os.IsNotExist(err) {
			return fmt.Errorf("project not found: %s\n\nRun 'arb init %s' to create it", resolvedProjectPath, resolvedProjectPath)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "Named project from config")
	rootCmd.PersistentFlags().StringVar(&projectPathFlag, "project-path", "", "Explicit path to the project root")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&debugOutput, "debug", false, "Print diagnostics to stderr")
}

// resolveProjectPath applies: --project-path > --project > default project >
// current directory.
func resolveProjectPath(cfg *config.Config) (string, error) {
	if strings.TrimSpace(projectPathFlag) != "" {
		return filepath.Abs(projectPathFlag)
	}
	if projectName != "" {
		path, err := cfg.GetProjectPath(projectName)
		if err != nil {
			return "", fmt.Errorf("project '%s' not found in %s", projectName, resolvedConfigPath)
		}
		return path, nil
	}
	if cfg.DefaultProject != "" {
		if path, err := cfg.GetProjectPath(""); err == nil {
			return path, nil
		}
	}
	return os.Getwd()
}

// getProjectPath returns the resolved project path.
func getProjectPath() string {
	return resolvedProjectPath
}

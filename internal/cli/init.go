package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/atomicfile"
	"github.com/aidanlsb/arbor/internal/config"
	"github.com/aidanlsb/arbor/internal/ui"
)

var initRegister string

// canonicalSkeleton is the tree written for a fresh project.
const canonicalSkeleton = "# Project Structure\n\n" +
	"Numbered domains (📁 N), objects (📁 N.M) and layers (N.M.K).\n" +
	"Edit through `arb add` and `arb remove`.\n\n" +
	"## Tree\n\n" +
	"```\n" +
	"Project/\n" +
	"└── 1 📁 Core/                            # Core domain\n" +
	"```\n"

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a new arbor project",
	Long: `Creates an arbor project at the given path (default: current directory).

Creates:
  - arbor.yaml                      (project configuration)
  - the canonical tree              (a one-domain skeleton)
  - .arbor/                         (index, audit log and lock)
  - .gitignore                      (ignores .arbor/)

Existing files are kept. With --register, the project is also added to the
global config under the given name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		res, err := initProject(abs)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if initRegister != "" {
			if _, err := config.RegisterProject(resolvedConfigPath, initRegister, abs); err != nil {
				return handleError(ErrConfigInvalid, err, "Check the global config file")
			}
			res.Registered = initRegister
		}

		if isJSONOutput() {
			outputSuccess(res, nil)
			return nil
		}

		fmt.Printf("Initializing project at: %s\n", ui.FilePath(abs))
		report := func(created bool, what string) {
			if created {
				fmt.Println(ui.Successf("Created %s", what))
			} else {
				fmt.Printf("• %s already exists (kept)\n", what)
			}
		}
		report(res.CreatedConfig, config.ProjectFileName)
		report(res.CreatedCanonical, res.CanonicalPath)
		fmt.Println(ui.Success("Ensured .arbor/ directory exists"))
		switch res.Gitignore {
		case "created":
			fmt.Println(ui.Success("Created .gitignore"))
		case "updated":
			fmt.Println(ui.Success("Updated .gitignore (added .arbor/)"))
		}
		if res.Registered != "" {
			fmt.Println(ui.Successf("Registered as %q in %s", res.Registered, resolvedConfigPath))
		}
		fmt.Println(ui.Hint("\nNext: edit the tree, then run 'arb generate'."))
		return nil
	},
}

type initResult struct {
	Path             string `json:"path"`
	CanonicalPath    string `json:"canonical_path"`
	CreatedConfig    bool   `json:"created_config"`
	CreatedCanonical bool   `json:"created_canonical"`
	Gitignore        string `json:"gitignore"`
	Registered       string `json:"registered,omitempty"`
}

func initProject(path string) (*initResult, error) {
	if err := os.MkdirAll(filepath.Join(path, arch.StateDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", arch.StateDir, err)
	}

	createdConfig, err := config.CreateDefaultProject(path)
	if err != nil {
		return nil, err
	}
	projectCfg, err := config.LoadProject(path)
	if err != nil {
		return nil, err
	}

	res := &initResult{
		Path:          path,
		CanonicalPath: projectCfg.CanonicalPath,
		CreatedConfig: createdConfig,
	}

	canonical := projectCfg.CanonicalFile(path)
	if _, err := os.Stat(canonical); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(canonical), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(canonical), err)
		}
		if err := atomicfile.WriteFile(canonical, []byte(canonicalSkeleton), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write canonical tree: %w", err)
		}
		res.CreatedCanonical = true
	}

	res.Gitignore, err = ensureGitignore(path)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ensureGitignore adds the state directory to .gitignore and reports
// "created", "updated" or "unchanged".
func ensureGitignore(path string) (string, error) {
	gitignorePath := filepath.Join(path, ".gitignore")
	entry := arch.StateDir + "/"

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}
	for _, line := range strings.Split(existing, "\n") {
		if strings.TrimSpace(line) == entry {
			return "unchanged", nil
		}
	}

	status := "created"
	content := "# arbor (index, audit log, lock)\n" + entry + "\n"
	if existing != "" {
		status = "updated"
		content = strings.TrimRight(existing, "\n") + "\n\n# arbor\n" + entry + "\n"
	}
	if err := atomicfile.WriteFile(gitignorePath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return status, nil
}

func init() {
	initCmd.Flags().StringVar(&initRegister, "register", "", "Register the project in the global config under this name")
	rootCmd.AddCommand(initCmd)
}

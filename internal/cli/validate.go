package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/check"
	"github.com/aidanlsb/arbor/internal/ui"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tree's structure and compare it with the generation root",
	Long: `Validate the architecture tree without changing anything.

Structural checks: every layer and object has its parent, domain numbers are
bare integers, numbers are unique. Filesystem checks: directories that are
missing, directories nothing in the tree maps to, and object descriptors
whose layer list no longer matches the tree.

With --strict, any structural issue or missing directory is an error.

Examples:
  arb validate
  arb validate --strict --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runValidate(cmd.Context(), svc)
		})
	},
}

func runValidate(ctx context.Context, svc *arch.Service) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := svc.Validate(ctx)
	if err != nil {
		return handleServiceError(err)
	}
	failed := validateStrict && (!report.Valid || len(report.Filesystem.MissingPaths) > 0)

	if isJSONOutput() {
		if failed {
			outputError(ErrValidationFailed, "validation failed", report, "Fix the issues above, then run 'arb generate'")
			return nil
		}
		var warnings []Warning
		for _, d := range report.Filesystem.DescriptorDrift {
			warnings = append(warnings, Warning{
				Code:    WarnDescriptorDrift,
				Message: fmt.Sprintf("%s lists %v, tree declares %v", d.Path, d.Recorded, d.Declared),
			})
		}
		outputSuccessWithWarnings(report, warnings, &Meta{Count: len(report.Issues)})
		return nil
	}

	errorsCount, warningsCount := 0, 0
	for _, issue := range report.Issues {
		prefix := ui.Error
		if issue.Level == check.LevelWarning {
			prefix = ui.Warning
			warningsCount++
		} else {
			errorsCount++
		}
		fmt.Printf("%s %s\n", prefix(issue.Message), ui.Hint(fmt.Sprintf("(line %d)", issue.Line)))
	}
	if len(report.Issues) == 0 {
		fmt.Println(ui.Successf("Structure valid (score %d)", report.Score))
	} else {
		fmt.Printf("Structure score %d %s\n", report.Score, ui.ErrorWarningCounts(errorsCount, warningsCount))
	}

	fs := report.Filesystem
	fmt.Println()
	fmt.Printf("%s %d existing, %d missing, %d extra (score %d)\n",
		ui.Header("Generation root:"), len(fs.ExistingPaths), len(fs.MissingPaths), len(fs.ExtraPaths), fs.Score)
	for _, p := range fs.MissingPaths {
		fmt.Printf("  %s %s\n", ui.Muted.Render("missing"), ui.FilePath(p))
	}
	for _, p := range fs.ExtraPaths {
		fmt.Printf("  %s %s\n", ui.Muted.Render("extra  "), ui.FilePath(p))
	}
	for _, d := range fs.DescriptorDrift {
		fmt.Println(ui.Warningf("%s lists %v, tree declares %v", d.Path, d.Recorded, d.Declared))
	}
	if len(fs.MissingPaths) > 0 {
		fmt.Println(ui.Hint("Run 'arb generate' to create missing directories."))
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Fail on any issue or missing directory")
	rootCmd.AddCommand(validateCmd)
}

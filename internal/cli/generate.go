package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/reconcile"
	"github.com/aidanlsb/arbor/internal/ui"
)

var (
	generateMode    = reconcile.ModeIncremental
	generateConfirm bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create the directories the tree calls for",
	Long: `Reconcile the generation root with the architecture tree.

Modes:
  incremental  create missing directories and their README.md (default)
  validate     report what is missing without writing
  full         delete everything under the generation root, then regenerate
               (requires --confirm)

Incremental generation never deletes and is safe to re-run; a failed pass
keeps what it created.

Examples:
  arb generate
  arb generate --mode validate
  arb generate --mode full --confirm`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runGenerate(cmd.Context(), svc)
		})
	},
}

func runGenerate(ctx context.Context, svc *arch.Service) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := svc.Generate(ctx, generateMode, generateConfirm)
	if err != nil {
		code, suggestion := classifyError(err)
		if code == ErrInternal && res != nil && res.Result != nil {
			code = ErrReconcilePartial
			suggestion = "Created directories were kept; fix the cause and re-run 'arb generate'"
		}
		return handleErrorWithDetails(code, err, suggestion, res)
	}

	if isJSONOutput() {
		count := 0
		if res.Result != nil {
			count = len(res.Result.CreatedPaths)
		}
		outputSuccess(res, &Meta{Count: count})
		return nil
	}

	if res.Validation != nil {
		v := res.Validation
		fmt.Printf("%d existing, %d missing (score %d)\n", len(v.ExistingPaths), len(v.MissingPaths), v.Score)
		for _, p := range v.MissingPaths {
			fmt.Printf("  %s %s\n", ui.Muted.Render("missing"), ui.FilePath(p))
		}
		return nil
	}

	r := res.Result
	for _, p := range r.CreatedPaths {
		fmt.Printf("  %s %s\n", ui.SymbolSuccess, ui.FilePath(p))
	}
	fmt.Println(ui.Successf("Created %d directories (%d already existed)", r.Counts.Created, r.Counts.SkippedExisting))
	if r.Counts.Unresolved > 0 {
		fmt.Println(ui.Warningf("%d entities have a missing ancestor; run 'arb validate'", r.Counts.Unresolved))
	}
	return nil
}

func init() {
	generateCmd.Flags().Var(&generateMode, "mode", "validate, incremental or full")
	generateCmd.Flags().BoolVar(&generateConfirm, "confirm", false, "Confirm full regeneration")
	rootCmd.AddCommand(generateCmd)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/reconcile"
	"github.com/aidanlsb/arbor/internal/ui"
)

var removeCleanup = reconcile.CleanupArchive

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an entity and everything nested under it",
	Long: `Remove the named entity from the canonical tree together with the lines
numbered beneath it, then deal with its directory:

  archive   move it under the archive directory (default)
  delete    delete it
  preserve  leave it in place

Examples:
  arb remove Cache
  arb remove Cache --cleanup delete`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runRemove(cmd.Context(), svc, args[0])
		})
	},
}

func runRemove(ctx context.Context, svc *arch.Service, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := svc.RemoveEntity(ctx, name, removeCleanup)
	if err != nil {
		code, suggestion := classifyError(err)
		return handleErrorWithDetails(code, err, suggestion, res)
	}

	if isJSONOutput() {
		outputSuccess(res, nil)
		return nil
	}

	fmt.Println(ui.Successf("Removed %s (%s, %s)", ui.Bold.Render(res.Name), res.Number, ui.Count(res.LinesRemoved, "line", "lines")))
	c := res.Cleanup
	switch {
	case !c.Found:
		fmt.Println(ui.Hint("No directory to clean up."))
	case c.ArchivedTo != "":
		fmt.Printf("  %s → %s\n", ui.FilePath(c.Path), ui.FilePath(c.ArchivedTo))
	case c.Mode == reconcile.CleanupDelete:
		fmt.Printf("  deleted %s\n", ui.FilePath(c.Path))
	default:
		fmt.Printf("  kept %s\n", ui.FilePath(c.Path))
	}
	return nil
}

func init() {
	removeCmd.Flags().Var(&removeCleanup, "cleanup", "archive, delete or preserve")
	rootCmd.AddCommand(removeCmd)
}

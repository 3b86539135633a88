package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/ui"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Show how an entity name is classified",
	Long: `Report whether a name is known, whether it gets a directory, whether
documentation may hyperlink it, and its description.

Registry records in classifications.yaml take precedence over the tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runLookup(cmd.Context(), svc, args[0])
		})
	},
}

func runLookup(ctx context.Context, svc *arch.Service, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := svc.Lookup(ctx, name)
	if err != nil {
		return handleServiceError(err)
	}
	if isJSONOutput() {
		outputSuccess(info, nil)
		return nil
	}
	if !info.Found {
		fmt.Println(ui.Warningf("%s is not classified", name))
		return nil
	}
	fmt.Println(ui.AccentBold.Render(info.Name))
	fmt.Printf("  materialize  %s\n", yesNo(info.Materialize))
	fmt.Printf("  hyperlink    %s\n", yesNo(info.Hyperlink))
	if info.Description != "" {
		fmt.Printf("  %s\n", ui.Hint(info.Description))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ui.Muted.Render("no")
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

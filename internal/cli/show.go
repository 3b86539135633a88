package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/ui"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the canonical architecture document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			data, err := svc.Canonical()
			if err != nil {
				return handleServiceError(err)
			}
			content := string(data)

			if isJSONOutput() {
				outputSuccess(map[string]interface{}{
					"path":    svc.CanonicalPath(),
					"content": content,
				}, nil)
				return nil
			}

			out := ui.DetectTerminal(os.Stdout)
			if showRaw || !out.Interactive {
				fmt.Print(content)
				return nil
			}
			rendered, err := ui.RenderMarkdown(content, out.Width)
			if err != nil {
				fmt.Print(content)
				return nil
			}
			fmt.Print(rendered)
			return nil
		})
	},
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the file without rendering")
	rootCmd.AddCommand(showCmd)
}

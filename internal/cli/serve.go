package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Expose analyze, generate, validate, insert, remove, lookup and guidance
as MCP tools over stdin/stdout, for use by AI agents.

Example client configuration:
  {"command": "arb", "args": ["serve", "--project-path", "/path/to/project"]}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcp.NewServer(svc, debugOutput).Run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

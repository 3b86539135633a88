package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/ui"
)

var mapFile string

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Record which layer each extracted code entity lives in",
	Long: `Read code entity records (a JSON array of {name, kind, filePath,
lineNumber}) and store the layer each one lives in. A record maps when its
file sits under <generation_root>/<Domain>/<Object>/<Layer>/.

Examples:
  arb map --file entities.json
  extractor | arb map --file -`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mapFile == "" {
			return handleErrorMsg(ErrMissingArgument, "--file is required", "Pass a file path, or '-' to read stdin")
		}
		records, err := readCodeEntities(cmd.InOrStdin(), mapFile)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Pass a JSON array of {name, kind, filePath, lineNumber}")
		}
		return withService(func(svc *arch.Service) error {
			return runMap(cmd.Context(), svc, records)
		})
	},
}

func readCodeEntities(stdin io.Reader, path string) ([]model.CodeEntity, error) {
	var r io.Reader
	switch path {
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var records []model.CodeEntity
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode code entities: %w", err)
	}
	return records, nil
}

func runMap(ctx context.Context, svc *arch.Service, records []model.CodeEntity) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := svc.MapCodeEntities(ctx, records)
	if err != nil {
		return handleServiceError(err)
	}
	if isJSONOutput() {
		outputSuccess(res, &Meta{Count: len(res.Mapped)})
		return nil
	}
	fmt.Println(ui.Successf("Mapped %s", ui.Count(len(res.Mapped), "entity", "entities")))
	for _, u := range res.Unmapped {
		fmt.Printf("  %s %s %s\n", ui.Muted.Render("unmapped"), u.Entity.ID(), ui.Hint(u.Reason))
	}
	return nil
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List code entities whose layer left the tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			orphans, err := svc.Orphans(ctx)
			if err != nil {
				return handleServiceError(err)
			}
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"orphans": orphans}, &Meta{Count: len(orphans)})
				return nil
			}
			if len(orphans) == 0 {
				fmt.Println(ui.Success("No orphaned code entities"))
				return nil
			}
			tbl := ui.NewTable("ENTITY", "LAYER", "FILE").MuteColumn(2)
			for _, m := range orphans {
				tbl.AddRow(m.Name, m.LayerPath, fmt.Sprintf("%s:%d", m.FilePath, m.LineNumber))
			}
			fmt.Print(tbl.String())
			return nil
		})
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapFile, "file", "f", "", "JSON file of code entities ('-' for stdin)")
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(orphansCmd)
}

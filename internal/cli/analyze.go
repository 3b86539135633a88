package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/ui"
)

var analyzeEntities bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Parse the architecture tree and summarize it",
	Long: `Parse the canonical architecture tree and report entity counts by kind,
maximum depth, duplicate numbers and lines that looked like tree entries but
could not be parsed.

Examples:
  arb analyze
  arb analyze --entities
  arb analyze --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runAnalyze(cmd.Context(), svc)
		})
	},
}

func runAnalyze(ctx context.Context, svc *arch.Service) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := svc.Analyze(ctx)
	if err != nil {
		return handleServiceError(err)
	}

	var entities []*model.Entity
	if analyzeEntities {
		entities, err = svc.Entities(ctx)
		if err != nil {
			return handleServiceError(err)
		}
	}

	if isJSONOutput() {
		var warnings []Warning
		if len(a.Skipped) > 0 {
			warnings = append(warnings, Warning{
				Code:    WarnSkippedLines,
				Message: fmt.Sprintf("%d tree lines could not be parsed", len(a.Skipped)),
			})
		}
		if a.Graph.Duplicates > 0 {
			warnings = append(warnings, Warning{
				Code:    WarnDuplicateNumbers,
				Message: fmt.Sprintf("%d duplicate numbers; the first occurrence wins", a.Graph.Duplicates),
			})
		}
		data := map[string]interface{}{"analysis": a}
		if analyzeEntities {
			data["entities"] = entities
		}
		outputSuccessWithWarnings(data, warnings, &Meta{Count: a.EntityCount})
		return nil
	}

	if a.Title != "" {
		fmt.Println(ui.Header(a.Title))
	}
	fmt.Println(ui.FilePath(a.CanonicalPath))
	fmt.Printf("  %d entities: %d domains, %d objects, %d layers (max depth %d)\n",
		a.EntityCount,
		a.Graph.CountsByKind[model.KindDomain],
		a.Graph.CountsByKind[model.KindObject],
		a.Graph.CountsByKind[model.KindLayer],
		a.Graph.MaxDepth)
	if a.Graph.Duplicates > 0 {
		fmt.Println(ui.Warningf("%d duplicate numbers (first occurrence wins)", a.Graph.Duplicates))
	}
	if len(a.Skipped) > 0 {
		fmt.Println(ui.Warningf("%d lines skipped", len(a.Skipped)))
		for _, s := range a.Skipped {
			fmt.Printf("  %s %s %s\n", ui.LineNum(s.Line), s.Reason, ui.Hint(s.Text))
		}
	}

	if analyzeEntities && len(entities) > 0 {
		fmt.Println()
		tbl := ui.NewTable("NUMBER", "NAME", "KIND", "DIR", "DESCRIPTION").MuteColumn(4)
		for _, e := range entities {
			dir := ""
			if e.Materializable() {
				dir = ui.SymbolSuccess
			}
			tbl.AddRow(string(e.Number), e.Name, e.Kind.String(), dir, e.Description())
		}
		fmt.Print(tbl.String())
	}
	return nil
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeEntities, "entities", false, "List every entity")
	rootCmd.AddCommand(analyzeCmd)
}

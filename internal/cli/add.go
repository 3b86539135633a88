package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/ui"
)

var (
	addDomain         string
	addNumber         string
	addLayers         []string
	addDescription    string
	addClassification string
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Insert a domain or object into the tree",
	Long: `Insert a new entity into the canonical tree, then create its directory.

An object number (N.M) places the entity inside --domain; when --number is
omitted the next free object number in that domain is used. A bare domain
number (N) adds a new domain, placed after --domain. Objects get one layer
line per --layer, or the project's default layers when none are given.

Examples:
  arb add Cache --domain Core
  arb add Cache --domain Core --number 1.4 --layer Api --layer Store
  arb add Billing --domain Core --number 3 --description "Invoices and payments"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			return runAdd(cmd.Context(), svc, args[0])
		})
	},
}

func runAdd(ctx context.Context, svc *arch.Service, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	number := model.Number(addNumber)
	if number == "" {
		next, err := svc.NextNumber(ctx, addDomain)
		if err != nil {
			return handleServiceError(err)
		}
		number = next
	}
	spec := mutate.InsertSpec{
		Name:           name,
		Domain:         addDomain,
		Number:         number,
		Layers:         addLayers,
		Description:    addDescription,
		Classification: addClassification,
	}
	res, err := svc.InsertEntity(ctx, spec)
	if err != nil {
		code, suggestion := classifyError(err)
		return handleErrorWithDetails(code, err, suggestion, res)
	}

	if isJSONOutput() {
		outputSuccess(res, nil)
		return nil
	}

	fmt.Println(ui.Successf("Added %s as %s (%s)", ui.Bold.Render(res.Name), res.NumberAssigned, ui.Count(res.LinesAdded, "line", "lines")))
	if res.Reconcile != nil {
		for _, p := range res.Reconcile.CreatedPaths {
			fmt.Printf("  %s %s\n", ui.SymbolSuccess, ui.FilePath(p))
		}
	}
	return nil
}

func init() {
	addCmd.Flags().StringVarP(&addDomain, "domain", "d", "", "Domain the entity goes in (or after, for a new domain)")
	addCmd.Flags().StringVarP(&addNumber, "number", "n", "", "Number to assign (default: next free)")
	addCmd.Flags().StringArrayVarP(&addLayers, "layer", "l", nil, "Layer name (repeatable)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Inline comment for the tree line")
	addCmd.Flags().StringVar(&addClassification, "classification", "", "Classification type recorded with the entity")
	_ = addCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(addCmd)
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/ui"
)

var (
	historyLimit int
	historySince time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the log of tree mutations and generation passes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			var since time.Time
			if historySince > 0 {
				since = time.Now().Add(-historySince)
			}
			entries, err := svc.History(since)
			if err != nil {
				return handleError(ErrFileReadError, err, "")
			}
			if historyLimit > 0 && len(entries) > historyLimit {
				entries = entries[len(entries)-historyLimit:]
			}
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"entries": entries}, &Meta{Count: len(entries)})
				return nil
			}
			if len(entries) == 0 {
				fmt.Println(ui.Hint("No history yet."))
				return nil
			}
			tbl := ui.NewTable("TIME", "OP", "TARGET", "RESULT").MuteColumn(0)
			for _, e := range entries {
				target := strings.TrimSpace(e.Name + " " + e.Number)
				result := ui.SymbolSuccess
				if !e.Success {
					result = ui.SymbolError + " " + e.Error
				}
				tbl.AddRow(e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Operation, target, result)
			}
			fmt.Print(tbl.String())
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Show at most this many recent entries (0 for all)")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only entries newer than this (e.g. 24h)")
	rootCmd.AddCommand(historyCmd)
}

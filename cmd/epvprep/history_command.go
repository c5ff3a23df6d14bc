package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/epvprep/internal/adapters/ledger"
	"github.com/okian/epvprep/internal/domain/types"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent stage runs, or the match outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.LedgerPath == "" {
				return errors.New("no ledger configured; set ledger_path")
			}
			lg, err := ledger.Open(cmd.Context(), cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer lg.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				outcomes, err := lg.Outcomes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printOutcomes(out, args[0], outcomes)
				return nil
			}
			runs, err := lg.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(out, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Runs to list (0 lists all)")
	return cmd
}

func printRuns(out io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			string(r.Stage),
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond).String(),
			count(r.OK),
			count(r.Skipped),
			count(r.Failed),
			r.Error,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Run", "Stage", "Started", "Took", "OK", "Skipped", "Failed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}

func printOutcomes(out io.Writer, runID string, outcomes []types.MatchResult) {
	if len(outcomes) == 0 {
		fmt.Fprintf(out, "No outcomes recorded for run %s\n", runID)
		return
	}
	rows := make([][]string, 0, len(outcomes))
	for _, m := range outcomes {
		errText := ""
		if m.Err != nil {
			errText = m.Err.Error()
		}
		rows = append(rows, []string{
			m.MatchID,
			string(m.Status),
			m.Reason,
			count(m.EventsIn),
			count(m.EventsOut),
			m.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintln(out, renderTable(out,
		[]string{"Match", "Status", "Reason", "In", "Out", "Took", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

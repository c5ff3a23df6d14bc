package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/epvprep/internal/app"
	"github.com/okian/epvprep/internal/domain/tally"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir] [match]",
		Short: "Sanity-check one match file (default: first match in labeled_360)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service) error {
				dir := svc.Paths().Labeled360
				var matchID string
				if len(args) > 0 {
					dir = args[0]
				}
				if len(args) > 1 {
					matchID = args[1]
				}
				id, in, err := svc.Check(cmd.Context(), dir, matchID)
				if err != nil {
					return err
				}
				printInspection(cmd.OutOrStdout(), dir, id, in)
				return nil
			})
		},
	}
}

func printInspection(out io.Writer, dir, matchID string, in tally.Inspection) {
	fmt.Fprintf(out, "Match %s in %s\n", matchID, dir)
	rows := [][]string{
		{"Events", count(in.Events)},
		{"With 360", count(in.With360) + " (" + in.Coverage().String() + ")"},
	}
	rows = append(rows, snapshotRows("First", in.First)...)
	rows = append(rows, snapshotRows("Last", in.Last)...)
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}

func snapshotRows(prefix string, s *tally.Snapshot) [][]string {
	if s == nil {
		return [][]string{{prefix + " event", "none"}}
	}
	minute := "?"
	if s.Minute != nil {
		minute = strconv.Itoa(*s.Minute)
	}
	return [][]string{
		{prefix + " event", s.ID},
		{prefix + " minute", minute},
		{prefix + " type", s.Type},
		{prefix + " freeze frame", count(s.FreezeFrame)},
	}
}

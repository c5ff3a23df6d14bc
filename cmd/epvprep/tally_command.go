package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/epvprep/internal/app"
	"github.com/okian/epvprep/internal/domain/tally"
)

func newTallyCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "tally [dir]",
		Short: "Count actions and goals across a stage directory (default: labeled)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service) error {
				dir := svc.Paths().Labeled
				if len(args) == 1 {
					dir = args[0]
				}
				t, err := svc.Tally(cmd.Context(), dir)
				if err != nil {
					return err
				}
				printTally(cmd.OutOrStdout(), dir, t, top)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Action types to list (0 lists all)")
	return cmd
}

func printTally(out io.Writer, dir string, t *tally.Tally, top int) {
	mean := "n/a"
	if v, ok := t.MeanActions().Value(); ok {
		mean = strconv.FormatFloat(v, 'f', 1, 64)
	}
	minActions, maxActions := "n/a", "n/a"
	if v, ok := t.MinActions(); ok {
		minActions = count(v)
	}
	if v, ok := t.MaxActions(); ok {
		maxActions = count(v)
	}

	fmt.Fprintf(out, "Tally of %s\n", dir)
	fmt.Fprintln(out, renderTable(out,
		[]string{"Matches", "Actions", "Min", "Max", "Mean", "Shots", "Goals", "Conversion"},
		[][]string{{
			count(len(t.Matches())),
			count(t.Total()),
			minActions,
			maxActions,
			mean,
			count(t.Shots()),
			count(len(t.Goals())),
			t.Conversion().String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	actions := t.Actions()
	if top > 0 && len(actions) > top {
		actions = actions[:top]
	}
	if len(actions) > 0 {
		rows := make([][]string, 0, len(actions))
		for _, a := range actions {
			rows = append(rows, []string{a.Name, count(a.Count), t.ActionShare(a.Name).String()})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Action", "Count", "Share"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight}))
	}

	if goals := t.Goals(); len(goals) > 0 {
		rows := make([][]string, 0, len(goals))
		for _, g := range goals {
			minute := "?"
			if g.Minute != nil {
				minute = strconv.Itoa(*g.Minute) + "'"
			}
			rows = append(rows, []string{g.MatchID, minute, g.Player, g.Team})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Match", "Minute", "Player", "Team"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))

		byTeam := t.GoalsByTeam()
		teamRows := make([][]string, 0, len(byTeam))
		for _, c := range byTeam {
			teamRows = append(teamRows, []string{c.Name, count(c.Count)})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Team", "Goals"}, teamRows,
			[]columnAlignment{alignLeft, alignRight}))
	}
}

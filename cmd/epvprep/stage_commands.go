package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/epvprep/internal/app"
	"github.com/okian/epvprep/internal/domain/types"
)

var stageDescriptions = map[types.Stage]string{
	types.StageMerge:  "Attach 360 freeze frames and visible areas to events",
	types.StageLabel:  "Label events by whether their possession produced a goal",
	types.StageFilter: "Keep only labeled events that carry a freeze frame",
	types.StageExport: "Write filtered events and freeze-frame players to Parquet",
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(types.Stages))
	for _, stage := range types.Stages {
		cmds = append(cmds, &cobra.Command{
			Use:   string(stage),
			Short: stageDescriptions[stage],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withService(cmd, func(svc *service.Service) error {
					report, err := svc.RunStage(cmd.Context(), stage)
					if report != nil {
						printReport(cmd.OutOrStdout(), report)
					}
					return err
				})
			},
		})
	}
	return cmds
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run merge, label, filter and export in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service) error {
				reports, err := svc.RunAll(cmd.Context())
				for _, report := range reports {
					printReport(cmd.OutOrStdout(), report)
				}
				return err
			})
		},
	}
}

func printReport(out io.Writer, report *types.StageReport) {
	counters := stageCounters(report.Stage)

	headers := []string{"Match", "Status", "In", "Out"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight}
	for _, c := range counters {
		headers = append(headers, c.title)
		aligns = append(aligns, alignRight)
	}
	headers = append(headers, "Took")
	aligns = append(aligns, alignRight)

	rows := make([][]string, 0, len(report.Matches))
	for _, m := range report.Matches {
		status := string(m.Status)
		if m.Reason != "" {
			status += " (" + m.Reason + ")"
		}
		row := []string{m.MatchID, status, count(m.EventsIn), count(m.EventsOut)}
		for _, c := range counters {
			row = append(row, c.value(m))
		}
		row = append(row, m.Duration.Round(time.Millisecond).String())
		rows = append(rows, row)
	}

	fmt.Fprintf(out, "%s run %s\n", report.Stage, report.RunID)
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
	}
	fmt.Fprintf(out, "%s ok, %s skipped, %s failed; %s events in, %s out in %s\n\n",
		count(report.Count(types.StatusOK)),
		count(report.Count(types.StatusSkipped)),
		count(report.Count(types.StatusFailed)),
		count(report.EventsIn()),
		count(report.EventsOut()),
		report.Duration.Round(time.Millisecond),
	)
}

type counterColumn struct {
	title string
	value func(types.MatchResult) string
}

func counterOf(title, name string) counterColumn {
	return counterColumn{title: title, value: func(m types.MatchResult) string {
		return count(m.Counter(name))
	}}
}

func stageCounters(stage types.Stage) []counterColumn {
	switch stage {
	case types.StageMerge:
		return []counterColumn{
			counterOf("Matched", types.CounterMatched),
			counterOf("Frames", types.CounterFrames),
			counterOf("Dup keys", types.CounterDuplicateKeys),
			counterOf("Unkeyed", types.CounterUnkeyedFrames),
			counterOf("Orphans", types.CounterOrphanFrames),
		}
	case types.StageLabel:
		return []counterColumn{
			counterOf("Goal poss.", types.CounterGoalPossessions),
			counterOf("Positive", types.CounterPositive),
		}
	case types.StageFilter:
		return []counterColumn{
			counterOf("Kept", types.CounterKept),
			counterOf("Dropped", types.CounterDropped),
			{title: "Coverage", value: func(m types.MatchResult) string {
				return types.Ratio{Num: m.Counter(types.CounterKept), Den: m.EventsIn}.String()
			}},
		}
	case types.StageExport:
		return []counterColumn{
			counterOf("Rows", types.CounterRows),
			counterOf("Player rows", types.CounterPlayerRows),
		}
	default:
		return nil
	}
}

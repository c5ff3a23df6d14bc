// Package types contains common types used across the application
package types

import (
	"fmt"
	"sort"
	"time"
)

// Stage names one pipeline step.
type Stage string

const (
	StageMerge  Stage = "merge"
	StageLabel  Stage = "label"
	StageFilter Stage = "filter"
	StageExport Stage = "export"
)

// Stages lists the steps in the order a full run chains them.
var Stages = []Stage{StageMerge, StageLabel, StageFilter, StageExport}

// Status is the outcome of one match in a stage run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Skip reasons.
const (
	// ReasonMissingEvents marks a 360 file whose events file does not exist.
	ReasonMissingEvents = "missing-events"
	// ReasonMissingInput marks a listed match file that was gone when read.
	ReasonMissingInput = "missing-input"
)

// Stage-specific counter names carried in MatchResult.Counters.
const (
	CounterMatched         = "matched"
	CounterFrames          = "frames"
	CounterDuplicateKeys   = "duplicate_keys"
	CounterUnkeyedFrames   = "unkeyed_frames"
	CounterOrphanFrames    = "orphan_frames"
	CounterGoalPossessions = "goal_possessions"
	CounterPositive        = "positive"
	CounterKept            = "kept"
	CounterDropped         = "dropped"
	CounterRows            = "rows"
	CounterPlayerRows      = "player_rows"
)

// MatchResult describes what a stage did with one match.
type MatchResult struct {
	MatchID   string         `json:"match_id"`
	Status    Status         `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	EventsIn  int            `json:"events_in"`
	EventsOut int            `json:"events_out"`
	Counters  map[string]int `json:"counters,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Err       error          `json:"-"`
}

// Counter returns a stage counter, 0 when unset.
func (r MatchResult) Counter(name string) int {
	return r.Counters[name]
}

// StageReport summarizes one stage run. Matches are ordered by match id.
type StageReport struct {
	RunID     string        `json:"run_id"`
	Stage     Stage         `json:"stage"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Matches   []MatchResult `json:"matches"`
}

// Sort orders matches by match id.
func (r *StageReport) Sort() {
	sort.SliceStable(r.Matches, func(i, j int) bool {
		return r.Matches[i].MatchID < r.Matches[j].MatchID
	})
}

// Count returns how many matches ended with status.
func (r *StageReport) Count(status Status) int {
	n := 0
	for _, m := range r.Matches {
		if m.Status == status {
			n++
		}
	}
	return n
}

// Sum adds a counter over all processed matches.
func (r *StageReport) Sum(counter string) int {
	n := 0
	for _, m := range r.Matches {
		n += m.Counters[counter]
	}
	return n
}

// EventsIn adds input event counts over all matches.
func (r *StageReport) EventsIn() int {
	n := 0
	for _, m := range r.Matches {
		n += m.EventsIn
	}
	return n
}

// EventsOut adds output event counts over all matches.
func (r *StageReport) EventsOut() int {
	n := 0
	for _, m := range r.Matches {
		n += m.EventsOut
	}
	return n
}

// Ratio is a fraction whose value is undefined when the denominator is zero.
type Ratio struct {
	Num int
	Den int
}

// Value returns Num/Den and false when Den is zero.
func (r Ratio) Value() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// Percent returns the ratio scaled to 100.
func (r Ratio) Percent() (float64, bool) {
	v, ok := r.Value()
	return v * 100, ok
}

// String renders the percentage with two decimals, or "n/a".
func (r Ratio) String() string {
	p, ok := r.Percent()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", p)
}

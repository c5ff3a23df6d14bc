// Package tally aggregates action and goal counts over stage output.
package tally

import (
	"sort"

	"github.com/okian/epvprep/internal/domain/label"
	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/types"
)

// UnknownName stands in for a missing type, team, or player name.
const UnknownName = "Unknown"

// Goal is one scored shot.
type Goal struct {
	MatchID string
	Minute  *int
	Player  string
	Team    string
}

// Count is one bucket of a histogram.
type Count struct {
	Name  string
	Count int
}

// MatchCount is the number of actions in one match.
type MatchCount struct {
	MatchID string
	Actions int
}

// Tally accumulates counts match by match. The zero value is not usable;
// call New.
type Tally struct {
	matches []MatchCount
	total   int
	actions map[string]int
	goals   []Goal
}

// New returns an empty tally.
func New() *Tally {
	return &Tally{actions: make(map[string]int)}
}

// Add counts the events of one match.
func (t *Tally) Add(matchID string, events []model.Event) {
	t.matches = append(t.matches, MatchCount{MatchID: matchID, Actions: len(events)})
	t.total += len(events)

	for i := range events {
		e := &events[i]
		t.actions[nameOr(e.TypeName)]++
		if label.IsGoal(e) {
			t.goals = append(t.goals, Goal{
				MatchID: matchID,
				Minute:  e.Minute,
				Player:  nameOr(e.PlayerName),
				Team:    nameOr(e.TeamName),
			})
		}
	}
}

// Matches returns per-match action counts in the order they were added.
func (t *Tally) Matches() []MatchCount {
	out := make([]MatchCount, len(t.matches))
	copy(out, t.matches)
	return out
}

// Total returns the number of actions over all matches.
func (t *Tally) Total() int { return t.total }

// MinActions returns the smallest per-match count, false with no matches.
func (t *Tally) MinActions() (int, bool) {
	if len(t.matches) == 0 {
		return 0, false
	}
	m := t.matches[0].Actions
	for _, c := range t.matches[1:] {
		m = min(m, c.Actions)
	}
	return m, true
}

// MaxActions returns the largest per-match count, false with no matches.
func (t *Tally) MaxActions() (int, bool) {
	if len(t.matches) == 0 {
		return 0, false
	}
	m := t.matches[0].Actions
	for _, c := range t.matches[1:] {
		m = max(m, c.Actions)
	}
	return m, true
}

// MeanActions returns the mean per-match count.
func (t *Tally) MeanActions() types.Ratio {
	return types.Ratio{Num: t.total, Den: len(t.matches)}
}

// Actions returns the action-type histogram, most common first and ties by
// name.
func (t *Tally) Actions() []Count {
	return sorted(t.actions)
}

// ActionShare returns the share of all actions that have type name.
func (t *Tally) ActionShare(name string) types.Ratio {
	return types.Ratio{Num: t.actions[name], Den: t.total}
}

// Goals returns every goal in the order it was counted.
func (t *Tally) Goals() []Goal {
	out := make([]Goal, len(t.goals))
	copy(out, t.goals)
	return out
}

// GoalsByTeam returns goal counts per team, most first.
func (t *Tally) GoalsByTeam() []Count {
	byTeam := make(map[string]int)
	for _, g := range t.goals {
		byTeam[g.Team]++
	}
	return sorted(byTeam)
}

// Shots returns the number of Shot actions.
func (t *Tally) Shots() int { return t.actions[label.ShotType] }

// Conversion returns goals per shot, undefined when there were no shots.
func (t *Tally) Conversion() types.Ratio {
	return types.Ratio{Num: len(t.goals), Den: t.Shots()}
}

func sorted(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func nameOr(s string) string {
	if s == "" {
		return UnknownName
	}
	return s
}

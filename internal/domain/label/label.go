// Package label stamps every event with the outcome of its possession.
package label

import (
	"github.com/okian/epvprep/internal/domain/model"
)

const (
	// ShotType is the action type of a scoring attempt.
	ShotType = "Shot"
	// GoalOutcome is the shot outcome name of a scored attempt.
	GoalOutcome = "Goal"
)

// Label values.
const (
	Negative = 0
	Positive = 1
)

// Stats are the match-level counters of one labeling pass.
type Stats struct {
	Events int
	// GoalPossessions is the number of distinct possessions holding a goal.
	GoalPossessions int
	// Positive is the number of events labeled 1.
	Positive int
}

// IsGoal reports whether e is a scored shot. Missing fields never match.
func IsGoal(e *model.Event) bool {
	return e.TypeName == ShotType && e.ShotOutcome == GoalOutcome
}

// GoalPossessions returns the possession ids that contain at least one goal.
// Events without a possession id are ignored.
func GoalPossessions(events []model.Event) map[int64]struct{} {
	goals := make(map[int64]struct{})
	for i := range events {
		e := &events[i]
		if e.Possession != nil && IsGoal(e) {
			goals[*e.Possession] = struct{}{}
		}
	}
	return goals
}

// Label sets Label on every event in place: 1 when its possession holds a
// goal, 0 otherwise. Events without a possession id are labeled 0. Any
// earlier label is replaced, so relabeling is stable.
func Label(events []model.Event) Stats {
	goals := GoalPossessions(events)
	stats := Stats{Events: len(events), GoalPossessions: len(goals)}

	for i := range events {
		e := &events[i]
		v := Negative
		if e.Possession != nil {
			if _, ok := goals[*e.Possession]; ok {
				v = Positive
			}
		}
		e.SetLabel(v)
		if v == Positive {
			stats.Positive++
		}
	}
	return stats
}

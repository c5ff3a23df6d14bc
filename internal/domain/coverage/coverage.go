// Package coverage keeps the events that carry 360 data.
package coverage

import (
	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/types"
)

// Stats count what a filter pass kept.
type Stats struct {
	Total int
	Kept  int
}

// Dropped returns the number of events without a freeze frame.
func (s Stats) Dropped() int { return s.Total - s.Kept }

// Coverage returns the kept share of events; undefined for an empty match.
func (s Stats) Coverage() types.Ratio {
	return types.Ratio{Num: s.Kept, Den: s.Total}
}

// Filter returns the events with a non-empty freeze frame, in input order.
func Filter(events []model.Event) ([]model.Event, Stats) {
	kept := make([]model.Event, 0, len(events))
	for i := range events {
		if events[i].HasFreezeFrame() {
			kept = append(kept, events[i])
		}
	}
	return kept, Stats{Total: len(events), Kept: len(kept)}
}

package tally

import (
	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/types"
)

// Snapshot is the sanity view of a single event.
type Snapshot struct {
	ID          string
	Minute      *int
	Type        string
	FreezeFrame int
}

// Inspection is the sanity view of one match file.
type Inspection struct {
	Events  int
	First   *Snapshot
	Last    *Snapshot
	With360 int
}

// Coverage returns the share of events carrying 360 data.
func (in Inspection) Coverage() types.Ratio {
	return types.Ratio{Num: in.With360, Den: in.Events}
}

// Inspect summarizes the first and last events of a match and counts the
// events with a freeze frame. First and Last are nil for an empty match.
func Inspect(events []model.Event) Inspection {
	in := Inspection{Events: len(events)}
	if len(events) == 0 {
		return in
	}
	in.First = snapshot(&events[0])
	in.Last = snapshot(&events[len(events)-1])
	for i := range events {
		if events[i].HasFreezeFrame() {
			in.With360++
		}
	}
	return in
}

func snapshot(e *model.Event) *Snapshot {
	return &Snapshot{
		ID:          e.ID.String(),
		Minute:      e.Minute,
		Type:        nameOr(e.TypeName),
		FreezeFrame: e.FreezeFrameSize(),
	}
}

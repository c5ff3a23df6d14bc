// Package merge joins 360 tracking frames onto the events they reference.
package merge

import (
	"fmt"

	"github.com/okian/epvprep/internal/domain/dedupe"
	"github.com/okian/epvprep/internal/domain/model"
)

// Policy decides which frame is attached when several share an event_uuid.
type Policy string

const (
	// PolicyFirst keeps the earliest frame in input order.
	PolicyFirst Policy = "first"
	// PolicyLast keeps the latest frame in input order.
	PolicyLast Policy = "last"
	// PolicyReject fails the merge on the first repeated key.
	PolicyReject Policy = "reject"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFirst, PolicyLast, PolicyReject:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Stats are the match-level counters of one merge.
type Stats struct {
	TotalEvents int
	Matched     int
	Frames      int
	// DuplicateKeys counts frames whose event_uuid was already seen.
	DuplicateKeys int
	// UnkeyedFrames counts frames with a missing or empty event_uuid.
	UnkeyedFrames int
	// OrphanFrames counts distinct keys that reference no event.
	OrphanFrames int
	// Duplicates lists the repeated keys in first-repeat order.
	Duplicates []string
	// Repeats maps each repeated key to the number of extra frames it had.
	Repeats map[string]int
}

// Result is the merged event sequence plus its counters.
type Result struct {
	Events []model.Event
	Stats  Stats
}

type merger struct {
	policy Policy
}

// Merge attaches each frame's freeze_frame and visible_area to the event
// whose id equals the frame's event_uuid. Events without a frame get an
// explicit empty pair. Input slices are not modified.
// Ids join on their text, so the string "2" and the number 2 match.
// Under PolicyReject the returned Stats cover the frames read up to the
// first repeated key.
func Merge(events []model.Event, frames []model.TrackingFrame, opts ...Option) (Result, error) {
	m := merger{policy: PolicyFirst}
	for _, opt := range opts {
		opt(&m)
	}

	stats := Stats{TotalEvents: len(events), Frames: len(frames)}

	seen := dedupe.NewTracker(dedupe.WithCapacity(len(frames)))
	lookup := make(map[string]*model.TrackingFrame, len(frames))
	for i := range frames {
		f := &frames[i]
		if f.EventUUID.IsZero() {
			stats.UnkeyedFrames++
			continue
		}
		key := f.EventUUID.String()
		if !seen.SeenAndRecord(key) {
			lookup[key] = f
			continue
		}
		stats.DuplicateKeys++
		switch m.policy {
		case PolicyReject:
			stats.Duplicates = []string{key}
			stats.Repeats = map[string]int{key: seen.Repeats(key)}
			return Result{Stats: stats}, fmt.Errorf("%w: event_uuid %q", ErrDuplicateKey, key)
		case PolicyLast:
			lookup[key] = f
		}
	}
	stats.Duplicates = seen.Duplicates()
	if len(stats.Duplicates) > 0 {
		stats.Repeats = make(map[string]int, len(stats.Duplicates))
		for _, key := range stats.Duplicates {
			stats.Repeats[key] = seen.Repeats(key)
		}
	}

	used := make(map[string]struct{}, len(lookup))
	out := make([]model.Event, len(events))
	copy(out, events)
	for i := range out {
		e := &out[i]
		f, ok := lookup[e.ID.String()]
		if !ok || e.ID.IsZero() {
			e.Tracking = model.EmptyTracking()
			continue
		}
		e.Tracking = f.Tracking()
		stats.Matched++
		used[e.ID.String()] = struct{}{}
	}
	stats.OrphanFrames = seen.Size() - len(used)

	return Result{Events: out, Stats: stats}, nil
}

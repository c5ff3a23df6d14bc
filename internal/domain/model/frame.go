package model

import (
	"encoding/json"
	"fmt"
)

// TrackingFrame is a 360 snapshot tied to one event through EventUUID.
type TrackingFrame struct {
	EventUUID   ID                `json:"event_uuid"`
	FreezeFrame []json.RawMessage `json:"freeze_frame"`
	VisibleArea []json.RawMessage `json:"visible_area"`
}

// Tracking returns the frame's attachment pair with empty lists for absent
// values.
func (f *TrackingFrame) Tracking() *Tracking {
	return &Tracking{
		FreezeFrame: nonNil(f.FreezeFrame),
		VisibleArea: nonNil(f.VisibleArea),
	}
}

// FramePlayer is one freeze-frame entry. Entries written as {"x":..,"y":..}
// are normalized into Location.
type FramePlayer struct {
	Teammate bool      `json:"teammate"`
	Actor    bool      `json:"actor"`
	Keeper   bool      `json:"keeper"`
	Location []float64 `json:"location"`
	X        *float64  `json:"x,omitempty"`
	Y        *float64  `json:"y,omitempty"`
}

// DecodeFramePlayers decodes raw freeze-frame entries.
func DecodeFramePlayers(entries []json.RawMessage) ([]FramePlayer, error) {
	players := make([]FramePlayer, 0, len(entries))
	for i, raw := range entries {
		var p FramePlayer
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("freeze_frame[%d]: %w", i, err)
		}
		if len(p.Location) == 0 && p.X != nil && p.Y != nil {
			p.Location = []float64{*p.X, *p.Y}
		}
		players = append(players, p)
	}
	return players, nil
}

// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Source field names the pipeline reads or writes.
const (
	FieldID          = "id"
	FieldType        = "type"
	FieldMinute      = "minute"
	FieldTeam        = "team"
	FieldPlayer      = "player"
	FieldShot        = "shot"
	FieldPossession  = "possession"
	FieldFreezeFrame = "freeze_frame"
	FieldVisibleArea = "visible_area"
	FieldLabel       = "label"
)

// Event is one in-game action. The exported fields are a typed view of the
// source record; every other source field is kept verbatim and written back
// unchanged.
//
// Absent fields decode to explicit zero states: an empty ID, empty names,
// nil Minute, nil Possession, nil Tracking and nil Label.
type Event struct {
	ID          ID
	TypeName    string // type.name
	Minute      *int
	TeamName    string // team.name
	PlayerName  string // player.name
	ShotOutcome string // shot.outcome.name, set for Shot events only
	Possession  *int64

	// Tracking is nil until the merge stage attaches a frame or an explicit
	// empty pair.
	Tracking *Tracking
	// Label is nil until the label stage sets it to 0 or 1.
	Label *int

	fields map[string]json.RawMessage
}

// Tracking is the 360 data attached to one event. Entries are kept as raw
// JSON so the attachment is byte-for-byte what the frame file held.
type Tracking struct {
	FreezeFrame []json.RawMessage
	VisibleArea []json.RawMessage
}

// EmptyTracking returns the explicit empty pair attached to unmatched events.
func EmptyTracking() *Tracking {
	return &Tracking{FreezeFrame: []json.RawMessage{}, VisibleArea: []json.RawMessage{}}
}

// HasFreezeFrame reports whether the event carries at least one freeze-frame entry.
func (e *Event) HasFreezeFrame() bool {
	return e.Tracking != nil && len(e.Tracking.FreezeFrame) > 0
}

// FreezeFrameSize returns the number of freeze-frame entries, 0 when absent.
func (e *Event) FreezeFrameSize() int {
	if e.Tracking == nil {
		return 0
	}
	return len(e.Tracking.FreezeFrame)
}

// SetLabel stamps the binary possession outcome.
func (e *Event) SetLabel(v int) {
	e.Label = &v
}

// Field returns the raw source value of a field and whether it was present.
func (e *Event) Field(name string) (json.RawMessage, bool) {
	raw, ok := e.fields[name]
	return raw, ok
}

type named struct {
	Name string `json:"name"`
}

type shotView struct {
	Outcome *named `json:"outcome"`
}

// UnmarshalJSON decodes an event object, keeping every field.
func (e *Event) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("event: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("event: expected object, got null")
	}

	out := Event{fields: fields}

	if raw, ok := fields[FieldID]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("event field %q: %w", FieldID, err)
		}
	}

	var err error
	if out.TypeName, err = decodeName(fields, FieldType); err != nil {
		return err
	}
	// Descriptive fields are not join or grouping keys: an odd shape leaves
	// the typed value empty and the raw value untouched.
	out.TeamName, _ = decodeName(fields, FieldTeam)
	out.PlayerName, _ = decodeName(fields, FieldPlayer)

	if raw, ok := fields[FieldShot]; ok && !isNull(raw) {
		var shot shotView
		if err := json.Unmarshal(raw, &shot); err != nil {
			return fmt.Errorf("event field %q: %w", FieldShot, err)
		}
		if shot.Outcome != nil {
			out.ShotOutcome = shot.Outcome.Name
		}
	}

	if raw, ok := fields[FieldMinute]; ok && !isNull(raw) {
		var m int
		if json.Unmarshal(raw, &m) == nil {
			out.Minute = &m
		}
	}

	if raw, ok := fields[FieldPossession]; ok && !isNull(raw) {
		var p int64
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("event field %q: %w", FieldPossession, err)
		}
		out.Possession = &p
	}

	ff, hasFF := fields[FieldFreezeFrame]
	va, hasVA := fields[FieldVisibleArea]
	if hasFF || hasVA {
		out.Tracking = EmptyTracking()
		if err := decodeList(ff, &out.Tracking.FreezeFrame, FieldFreezeFrame); err != nil {
			return err
		}
		if err := decodeList(va, &out.Tracking.VisibleArea, FieldVisibleArea); err != nil {
			return err
		}
	}

	if raw, ok := fields[FieldLabel]; ok && !isNull(raw) {
		var l int
		if err := json.Unmarshal(raw, &l); err != nil {
			return fmt.Errorf("event field %q: %w", FieldLabel, err)
		}
		out.Label = &l
	}

	*e = out
	return nil
}

// MarshalJSON writes the source fields back with the derived fields applied.
// Typed fields missing from the source (events built in code) are emitted too.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.fields)+3)
	for k, v := range e.fields {
		out[k] = v
	}

	setIfAbsent := func(key string, present bool, v any) {
		if _, ok := out[key]; !ok && present {
			out[key] = v
		}
	}
	setIfAbsent(FieldID, !e.ID.IsZero(), e.ID)
	setIfAbsent(FieldType, e.TypeName != "", named{Name: e.TypeName})
	setIfAbsent(FieldTeam, e.TeamName != "", named{Name: e.TeamName})
	setIfAbsent(FieldPlayer, e.PlayerName != "", named{Name: e.PlayerName})
	setIfAbsent(FieldShot, e.ShotOutcome != "", shotView{Outcome: &named{Name: e.ShotOutcome}})
	setIfAbsent(FieldMinute, e.Minute != nil, e.Minute)
	setIfAbsent(FieldPossession, e.Possession != nil, e.Possession)

	if e.Tracking != nil {
		out[FieldFreezeFrame] = nonNil(e.Tracking.FreezeFrame)
		out[FieldVisibleArea] = nonNil(e.Tracking.VisibleArea)
	}
	if e.Label != nil {
		out[FieldLabel] = *e.Label
	}

	return encode(out)
}

// encode marshals v without HTML escaping so names like "Brighton & Hove"
// are written as read.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeName(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var n named
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("event field %q: %w", key, err)
	}
	return n.Name, nil
}

func decodeList(raw json.RawMessage, dst *[]json.RawMessage, key string) error {
	if raw == nil || isNull(raw) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("event field %q: %w", key, err)
	}
	*dst = nonNil(list)
	return nil
}

func nonNil(list []json.RawMessage) []json.RawMessage {
	if list == nil {
		return []json.RawMessage{}
	}
	return list
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

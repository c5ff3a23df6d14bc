// Package export writes model-ready events to Parquet.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/okian/epvprep/internal/domain/model"
)

// EventRecord is the Parquet schema of one event row.
type EventRecord struct {
	MatchID     string `parquet:"match_id"`
	EventID     string `parquet:"event_id"`
	Index       int32  `parquet:"index"`
	Type        string `parquet:"type"`
	Minute      *int32 `parquet:"minute,optional"`
	Team        string `parquet:"team"`
	Player      string `parquet:"player"`
	Possession  *int64 `parquet:"possession,optional"`
	Label       int32  `parquet:"label"`
	FreezeFrame int32  `parquet:"freeze_frame_size"`
}

// PlayerRecord is the Parquet schema of one freeze-frame entry.
type PlayerRecord struct {
	MatchID  string   `parquet:"match_id"`
	EventID  string   `parquet:"event_id"`
	Slot     int32    `parquet:"slot"`
	Teammate bool     `parquet:"teammate"`
	Actor    bool     `parquet:"actor"`
	Keeper   bool     `parquet:"keeper"`
	X        *float64 `parquet:"x,optional"`
	Y        *float64 `parquet:"y,optional"`
}

// Counts is what one match export wrote.
type Counts struct {
	Events  int
	Players int
}

// Writer writes <match>.parquet and <match>.players.parquet into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// EventsPath returns the events file of a match.
func (w *Writer) EventsPath(matchID string) string {
	return filepath.Join(w.dir, matchID+".parquet")
}

// PlayersPath returns the freeze-frame players file of a match.
func (w *Writer) PlayersPath(matchID string) string {
	return filepath.Join(w.dir, matchID+".players.parquet")
}

// Records flattens events into event and player rows.
func Records(matchID string, events []model.Event) ([]EventRecord, []PlayerRecord, error) {
	rows := make([]EventRecord, 0, len(events))
	var players []PlayerRecord

	for i := range events {
		e := &events[i]
		id := e.ID.String()
		rec := EventRecord{
			MatchID:     matchID,
			EventID:     id,
			Index:       int32(i),
			Type:        e.TypeName,
			Team:        e.TeamName,
			Player:      e.PlayerName,
			Possession:  e.Possession,
			FreezeFrame: int32(e.FreezeFrameSize()),
		}
		if e.Minute != nil {
			m := int32(*e.Minute)
			rec.Minute = &m
		}
		if e.Label != nil {
			rec.Label = int32(*e.Label)
		}
		rows = append(rows, rec)

		if e.Tracking == nil {
			continue
		}
		decoded, err := model.DecodeFramePlayers(e.Tracking.FreezeFrame)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: event %s: %w", ErrFreezeFrame, id, err)
		}
		for slot, p := range decoded {
			pr := PlayerRecord{
				MatchID:  matchID,
				EventID:  id,
				Slot:     int32(slot),
				Teammate: p.Teammate,
				Actor:    p.Actor,
				Keeper:   p.Keeper,
			}
			if len(p.Location) >= 2 {
				x, y := p.Location[0], p.Location[1]
				pr.X, pr.Y = &x, &y
			}
			players = append(players, pr)
		}
	}
	return rows, players, nil
}

// Write exports one match. Each file is written to a temp name and renamed.
func (w *Writer) Write(ctx context.Context, matchID string, events []model.Event) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	rows, players, err := Records(matchID, events)
	if err != nil {
		return Counts{}, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Counts{}, fmt.Errorf("create %s: %w", w.dir, err)
	}
	if err := writeAtomic(w.EventsPath(matchID), rows); err != nil {
		return Counts{}, err
	}
	if err := writeAtomic(w.PlayersPath(matchID), players); err != nil {
		return Counts{}, err
	}
	return Counts{Events: len(rows), Players: len(players)}, nil
}

func writeAtomic[T any](path string, records []T) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := parquet.WriteFile(tmp, records); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

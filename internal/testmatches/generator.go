package testmatches

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/epvprep/internal/domain/label"
	"github.com/okian/epvprep/internal/domain/model"
)

var teams = [...]string{
	"Arsenal", "Aston Villa", "Bayer Leverkusen", "Brighton & Hove Albion",
	"Chelsea", "Everton", "Girona", "Liverpool", "Real Sociedad", "Wolfsburg",
}

var actions = [...]string{
	"Pass", "Ball Receipt*", "Carry", "Pressure", "Ball Recovery",
	"Duel", "Clearance", "Interception", "Dribble", "Foul Committed",
}

// Match is one generated match.
type Match struct {
	ID     string
	Events []model.Event
	Frames []model.TrackingFrame
	Shots  int
	Goals  int
}

// Generate builds the match at position index. The output depends only on
// cfg and index.
func Generate(cfg Config, index int) Match {
	r := rand.New(rand.NewPCG(cfg.Seed, uint64(index)))
	m := Match{ID: strconv.Itoa(cfg.FirstMatchID + index)}

	home := teams[r.IntN(len(teams))]
	away := teams[(indexOf(home)+1+r.IntN(len(teams)-1))%len(teams)]
	sides := [2]string{home, away}

	m.Events = make([]model.Event, 0, cfg.EventsPerMatch)
	possession := int64(0)
	for len(m.Events) < cfg.EventsPerMatch {
		possession++
		team := sides[possession%2]
		n := minPossession + r.IntN(maxPossession-minPossession+1)
		shot := r.Float64() < cfg.ShotRate
		for j := 0; j < n && len(m.Events) < cfg.EventsPerMatch; j++ {
			pos := possession
			minute := len(m.Events) * matchMinutes / max(cfg.EventsPerMatch, 1)
			e := model.Event{
				ID:         eventID(m.ID, len(m.Events)),
				TypeName:   actions[r.IntN(len(actions))],
				Minute:     &minute,
				TeamName:   team,
				PlayerName: player(team, r.IntN(squadSize)),
				Possession: &pos,
			}
			if shot && j == n-1 {
				e.TypeName = label.ShotType
				e.ShotOutcome = "Saved"
				m.Shots++
				if r.Float64() < cfg.GoalRate {
					e.ShotOutcome = label.GoalOutcome
					m.Goals++
				}
			}
			m.Events = append(m.Events, e)

			if r.Float64() < cfg.Coverage {
				m.Frames = append(m.Frames, frame(r, e.ID))
			}
		}
	}
	// 360 files are not in event order.
	r.Shuffle(len(m.Frames), func(i, j int) { m.Frames[i], m.Frames[j] = m.Frames[j], m.Frames[i] })
	return m
}

// eventID derives a stable UUID for an event.
func eventID(matchID string, index int) model.ID {
	return model.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(matchID+"/"+strconv.Itoa(index))).String())
}

func frame(r *rand.Rand, id model.ID) model.TrackingFrame {
	n := minFramePlayers + r.IntN(maxFramePlayers-minFramePlayers+1)
	players := make([]json.RawMessage, n)
	for i := range players {
		players[i] = mustJSON(model.FramePlayer{
			Teammate: r.IntN(2) == 0,
			Actor:    i == 0,
			Keeper:   i == n-1 && r.IntN(3) == 0,
			Location: []float64{round(r.Float64() * pitchLength), round(r.Float64() * pitchWidth)},
		})
	}
	area := make([]json.RawMessage, 0, visibleAreaSides*2)
	for range visibleAreaSides {
		area = append(area,
			mustJSON(round(r.Float64()*pitchLength)),
			mustJSON(round(r.Float64()*pitchWidth)),
		)
	}
	return model.TrackingFrame{EventUUID: id, FreezeFrame: players, VisibleArea: area}
}

func player(team string, n int) string {
	return fmt.Sprintf("%s #%d", team, n+1)
}

func indexOf(team string) int {
	for i, t := range teams {
		if t == team {
			return i
		}
	}
	return 0
}

func round(v float64) float64 {
	return float64(int(v*10)) / 10
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

package label_test

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/okian/epvprep/internal/domain/label"
	"github.com/okian/epvprep/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func decodeEvents(s string) []model.Event {
	var events []model.Event
	if err := json.Unmarshal([]byte(s), &events); err != nil {
		panic(err)
	}
	return events
}

func labels(events []model.Event) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = *e.Label
	}
	return out
}

func TestLabelScenario(t *testing.T) {
	Convey("Given a possession ending in a goal and one that does not", t, func() {
		events := decodeEvents(`[
			{"id":1,"type":{"name":"Pass"},"possession":10},
			{"id":2,"type":{"name":"Shot"},"shot":{"outcome":{"name":"Goal"}},"possession":10},
			{"id":3,"type":{"name":"Pass"},"possession":11}
		]`)

		stats := label.Label(events)

		Convey("Then the scoring possession should be labeled 1 throughout", func() {
			So(labels(events), ShouldResemble, []int{1, 1, 0})
		})

		Convey("Then the counters should describe the pass", func() {
			So(stats.Events, ShouldEqual, 3)
			So(stats.GoalPossessions, ShouldEqual, 1)
			So(stats.Positive, ShouldEqual, 2)
		})

		Convey("When labeled again", func() {
			again := label.Label(events)

			Convey("Then the labels should not change", func() {
				So(labels(events), ShouldResemble, []int{1, 1, 0})
				So(again, ShouldResemble, stats)
			})
		})
	})
}

func TestIsGoal(t *testing.T) {
	Convey("Given events with partial shot data", t, func() {
		events := decodeEvents(`[
			{"type":{"name":"Shot"},"shot":{"outcome":{"name":"Goal"}}},
			{"type":{"name":"Shot"},"shot":{"outcome":{"name":"Saved"}}},
			{"type":{"name":"Shot"}},
			{"type":{"name":"Shot"},"shot":{}},
			{"type":{"name":"Own Goal For"}},
			{"shot":{"outcome":{"name":"Goal"}}},
			{}
		]`)

		Convey("Then only a Shot with a Goal outcome should qualify", func() {
			got := make([]bool, len(events))
			for i := range events {
				got[i] = label.IsGoal(&events[i])
			}
			So(got, ShouldResemble, []bool{true, false, false, false, false, false, false})
		})
	})
}

func TestLabelAbsentPossession(t *testing.T) {
	Convey("Given a goal without a possession id", t, func() {
		events := decodeEvents(`[
			{"type":{"name":"Shot"},"shot":{"outcome":{"name":"Goal"}},"possession":null},
			{"type":{"name":"Pass"}},
			{"type":{"name":"Pass"},"possession":0}
		]`)

		stats := label.Label(events)

		Convey("Then no event should be labeled 1", func() {
			So(labels(events), ShouldResemble, []int{0, 0, 0})
			So(stats.GoalPossessions, ShouldEqual, 0)
		})
	})

	Convey("Given a goal in possession 0", t, func() {
		events := decodeEvents(`[
			{"type":{"name":"Pass"},"possession":0},
			{"type":{"name":"Shot"},"shot":{"outcome":{"name":"Goal"}},"possession":0},
			{"type":{"name":"Pass"}}
		]`)
		label.Label(events)

		Convey("Then zero should be a valid possession and null still excluded", func() {
			So(labels(events), ShouldResemble, []int{1, 1, 0})
		})
	})
}

func TestLabelProperties(t *testing.T) {
	Convey("Given a shuffled synthetic match", t, func() {
		rng := rand.New(rand.NewPCG(7, 0))
		events := make([]model.Event, 0, 400)
		for i := 0; i < 400; i++ {
			p := rng.Int64N(40)
			e := model.Event{ID: model.NewNumericID(int64(i)), TypeName: "Pass", Possession: &p}
			if rng.IntN(25) == 0 {
				e.TypeName = label.ShotType
				e.ShotOutcome = label.GoalOutcome
			}
			if rng.IntN(30) == 0 {
				e.Possession = nil
			}
			events = append(events, e)
		}
		label.Label(events)

		Convey("Then each possession should carry one label", func() {
			byPossession := map[int64]int{}
			for _, e := range events {
				if e.Possession == nil {
					So(*e.Label, ShouldEqual, 0)
					continue
				}
				if prev, ok := byPossession[*e.Possession]; ok {
					So(*e.Label, ShouldEqual, prev)
				}
				byPossession[*e.Possession] = *e.Label
			}
		})

		Convey("Then a label should be 1 exactly when the possession holds a goal", func() {
			goals := label.GoalPossessions(events)
			for _, e := range events {
				want := 0
				if e.Possession != nil {
					if _, ok := goals[*e.Possession]; ok {
						want = 1
					}
				}
				So(*e.Label, ShouldEqual, want)
			}
		})

		Convey("Then reversing the order should not change any event's label", func() {
			want := map[string]int{}
			for _, e := range events {
				want[e.ID.String()] = *e.Label
			}
			reversed := make([]model.Event, len(events))
			for i, e := range events {
				reversed[len(events)-1-i] = e
			}
			label.Label(reversed)
			for _, e := range reversed {
				So(*e.Label, ShouldEqual, want[e.ID.String()])
			}
		})
	})
}

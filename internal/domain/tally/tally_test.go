package tally_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

func decodeEvents(s string) []model.Event {
	var events []model.Event
	if err := json.Unmarshal([]byte(s), &events); err != nil {
		panic(err)
	}
	return events
}

const matchA = `[
	{"id":1,"type":{"name":"Pass"},"minute":0,"team":{"name":"Bayer Leverkusen"}},
	{"id":2,"type":{"name":"Pass"},"minute":1,"team":{"name":"Bayer Leverkusen"}},
	{"id":3,"type":{"name":"Shot"},"minute":12,"team":{"name":"Bayer Leverkusen"},"player":{"name":"Victor Boniface"},"shot":{"outcome":{"name":"Goal"}}},
	{"id":4,"type":{"name":"Shot"},"minute":30,"team":{"name":"Werder Bremen"},"shot":{"outcome":{"name":"Off T"}}},
	{"id":5,"minute":44}
]`

const matchB = `[
	{"id":1,"type":{"name":"Carry"},"minute":3},
	{"id":2,"type":{"name":"Shot"},"minute":88,"team":{"name":"Werder Bremen"},"shot":{"outcome":{"name":"Goal"}}}
]`

func TestTally(t *testing.T) {
	Convey("Given two matches", t, func() {
		tl := tally.New()
		tl.Add("3895302", decodeEvents(matchA))
		tl.Add("3895309", decodeEvents(matchB))

		Convey("Then totals and per-match extremes should be counted", func() {
			So(tl.Total(), ShouldEqual, 7)
			lo, ok := tl.MinActions()
			So(ok, ShouldBeTrue)
			So(lo, ShouldEqual, 2)
			hi, _ := tl.MaxActions()
			So(hi, ShouldEqual, 5)
			mean, ok := tl.MeanActions().Value()
			So(ok, ShouldBeTrue)
			So(mean, ShouldEqual, 3.5)
			So(tl.Matches(), ShouldResemble, []tally.MatchCount{
				{MatchID: "3895302", Actions: 5},
				{MatchID: "3895309", Actions: 2},
			})
		})

		Convey("Then the histogram should be sorted by count then name", func() {
			So(tl.Actions(), ShouldResemble, []tally.Count{
				{Name: "Shot", Count: 3},
				{Name: "Pass", Count: 2},
				{Name: "Carry", Count: 1},
				{Name: tally.UnknownName, Count: 1},
			})
			p, _ := tl.ActionShare("Pass").Percent()
			So(p, ShouldAlmostEqual, 28.5714, 0.001)
		})

		Convey("Then goals should be listed with their context", func() {
			goals := tl.Goals()
			So(goals, ShouldHaveLength, 2)
			So(goals[0].MatchID, ShouldEqual, "3895302")
			So(*goals[0].Minute, ShouldEqual, 12)
			So(goals[0].Player, ShouldEqual, "Victor Boniface")
			So(goals[1].Player, ShouldEqual, tally.UnknownName)
			So(goals[1].Team, ShouldEqual, "Werder Bremen")
		})

		Convey("Then goals by team and conversion should follow", func() {
			So(tl.GoalsByTeam(), ShouldResemble, []tally.Count{
				{Name: "Bayer Leverkusen", Count: 1},
				{Name: "Werder Bremen", Count: 1},
			})
			So(tl.Shots(), ShouldEqual, 3)
			So(tl.Conversion().String(), ShouldEqual, "66.67%")
		})
	})

	Convey("Given no matches", t, func() {
		tl := tally.New()

		Convey("Then every ratio should be undefined rather than fail", func() {
			_, ok := tl.MinActions()
			So(ok, ShouldBeFalse)
			_, ok = tl.MaxActions()
			So(ok, ShouldBeFalse)
			So(tl.MeanActions().String(), ShouldEqual, "n/a")
			So(tl.Conversion().String(), ShouldEqual, "n/a")
			So(tl.ActionShare("Pass").String(), ShouldEqual, "n/a")
			So(tl.Actions(), ShouldBeEmpty)
		})
	})

	Convey("Given a match without shots", t, func() {
		tl := tally.New()
		tl.Add("1", decodeEvents(`[{"type":{"name":"Pass"}}]`))

		Convey("Then conversion should be undefined", func() {
			_, ok := tl.Conversion().Value()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestInspect(t *testing.T) {
	Convey("Given a merged match", t, func() {
		events := decodeEvents(`[
			{"id":"a","minute":0,"type":{"name":"Starting XI"},"freeze_frame":[],"visible_area":[]},
			{"id":"b","minute":5,"type":{"name":"Pass"},"freeze_frame":[{},{}],"visible_area":[]},
			{"id":"c","minute":93,"type":{"name":"Half End"},"freeze_frame":[{}],"visible_area":[]}
		]`)

		in := tally.Inspect(events)

		Convey("Then first and last events should be summarized", func() {
			So(in.Events, ShouldEqual, 3)
			So(in.First.Type, ShouldEqual, "Starting XI")
			So(in.First.FreezeFrame, ShouldEqual, 0)
			So(*in.Last.Minute, ShouldEqual, 93)
			So(in.Last.FreezeFrame, ShouldEqual, 1)
			So(in.With360, ShouldEqual, 2)
		})
	})

	Convey("Given an empty match", t, func() {
		in := tally.Inspect(nil)

		So(in.First, ShouldBeNil)
		So(in.Last, ShouldBeNil)
		So(in.Coverage().String(), ShouldEqual, "n/a")
	})
}

package model_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/okian/epvprep/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const shotEvent = `{
	"id": "a7b1c2d3-0000-4000-8000-000000000001",
	"index": 812,
	"minute": 37,
	"type": {"id": 16, "name": "Shot"},
	"team": {"id": 904, "name": "Bayer Leverkusen"},
	"player": {"id": 8221, "name": "Florian Wirtz"},
	"possession": 41,
	"location": [108.2, 35.1],
	"shot": {"statsbomb_xg": 0.31, "outcome": {"id": 97, "name": "Goal"}}
}`

func TestEventDecode(t *testing.T) {
	Convey("Given a source shot event", t, func() {
		var e model.Event
		err := json.Unmarshal([]byte(shotEvent), &e)

		Convey("Then the typed view should be populated", func() {
			So(err, ShouldBeNil)
			So(e.ID.String(), ShouldEqual, "a7b1c2d3-0000-4000-8000-000000000001")
			So(e.TypeName, ShouldEqual, "Shot")
			So(e.TeamName, ShouldEqual, "Bayer Leverkusen")
			So(e.PlayerName, ShouldEqual, "Florian Wirtz")
			So(e.ShotOutcome, ShouldEqual, "Goal")
			So(*e.Minute, ShouldEqual, 37)
			So(*e.Possession, ShouldEqual, 41)
			So(e.Tracking, ShouldBeNil)
			So(e.Label, ShouldBeNil)
		})

		Convey("When it is encoded after derived fields are set", func() {
			e.Tracking = model.EmptyTracking()
			e.SetLabel(1)
			data, err := json.Marshal(e)
			So(err, ShouldBeNil)

			var out map[string]any
			So(json.Unmarshal(data, &out), ShouldBeNil)

			Convey("Then unknown source fields should survive", func() {
				So(out["index"], ShouldEqual, 812)
				So(out["location"], ShouldResemble, []any{108.2, 35.1})
				shot := out["shot"].(map[string]any)
				So(shot["statsbomb_xg"], ShouldEqual, 0.31)
			})

			Convey("Then derived fields should be present, never null", func() {
				So(out["freeze_frame"], ShouldResemble, []any{})
				So(out["visible_area"], ShouldResemble, []any{})
				So(out["label"], ShouldEqual, 1)
			})
		})
	})
}

func TestEventAbsentFields(t *testing.T) {
	Convey("Given an event with null and missing fields", t, func() {
		var e model.Event
		err := json.Unmarshal([]byte(`{"id": 7, "possession": null, "type": null}`), &e)

		Convey("Then absence should decode to explicit zero states", func() {
			So(err, ShouldBeNil)
			So(e.ID.String(), ShouldEqual, "7")
			So(e.TypeName, ShouldEqual, "")
			So(e.ShotOutcome, ShouldEqual, "")
			So(e.Possession, ShouldBeNil)
			So(e.Minute, ShouldBeNil)
			So(e.HasFreezeFrame(), ShouldBeFalse)
			So(e.FreezeFrameSize(), ShouldEqual, 0)
		})

		Convey("Then a numeric id should encode back as a number", func() {
			data, err := json.Marshal(e)
			So(err, ShouldBeNil)
			var out map[string]any
			So(json.Unmarshal(data, &out), ShouldBeNil)
			So(out["id"], ShouldEqual, 7)
		})
	})

	Convey("Given malformed typed fields", t, func() {
		cases := []string{
			`[]`,
			`null`,
			`{"possession": "ten"}`,
			`{"type": "Shot"}`,
			`{"id": true}`,
			`{"freeze_frame": {"x": 1}}`,
		}
		for _, c := range cases {
			var e model.Event
			So(json.Unmarshal([]byte(c), &e), ShouldNotBeNil)
		}
	})
}

func TestEventDescriptiveFields(t *testing.T) {
	Convey("Given an event whose descriptive fields have an unusual shape", t, func() {
		src := `{"id":"a","minute":"45+2","team":"Leverkusen","player":7,"type":{"name":"Pass"},"possession":1}`
		var e model.Event
		err := json.Unmarshal([]byte(src), &e)

		Convey("Then it should decode with the keys intact", func() {
			So(err, ShouldBeNil)
			So(e.ID.String(), ShouldEqual, "a")
			So(e.TypeName, ShouldEqual, "Pass")
			So(*e.Possession, ShouldEqual, 1)
			So(e.Minute, ShouldBeNil)
			So(e.TeamName, ShouldEqual, "")
			So(e.PlayerName, ShouldEqual, "")
		})

		Convey("Then the raw values should be written back unchanged", func() {
			data, err := json.Marshal(e)
			So(err, ShouldBeNil)
			var out map[string]any
			So(json.Unmarshal(data, &out), ShouldBeNil)
			So(out["minute"], ShouldEqual, "45+2")
			So(out["team"], ShouldEqual, "Leverkusen")
			So(out["player"], ShouldEqual, 7)
		})
	})
}

func TestEventWithTracking(t *testing.T) {
	Convey("Given a labeled event that carries 360 data", t, func() {
		src := `{"id":"e1","freeze_frame":[{"teammate":true,"actor":true,"keeper":false,"location":[60.1,40.2]}],"visible_area":[1,2,3,4],"label":0}`
		var e model.Event
		So(json.Unmarshal([]byte(src), &e), ShouldBeNil)

		Convey("Then tracking and label should decode", func() {
			So(e.HasFreezeFrame(), ShouldBeTrue)
			So(e.FreezeFrameSize(), ShouldEqual, 1)
			So(len(e.Tracking.VisibleArea), ShouldEqual, 4)
			So(*e.Label, ShouldEqual, 0)
		})

		Convey("Then freeze-frame players should decode", func() {
			players, err := model.DecodeFramePlayers(e.Tracking.FreezeFrame)
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 1)
			So(players[0].Actor, ShouldBeTrue)
			So(players[0].Location, ShouldResemble, []float64{60.1, 40.2})
		})
	})

	Convey("Given x/y style freeze-frame entries", t, func() {
		entries := []json.RawMessage{json.RawMessage(`{"x":1,"y":2}`)}
		players, err := model.DecodeFramePlayers(entries)
		So(err, ShouldBeNil)
		So(players[0].Location, ShouldResemble, []float64{1, 2})
	})
}

func TestEventBuiltInCode(t *testing.T) {
	Convey("Given an event built without a source record", t, func() {
		poss := int64(10)
		e := model.Event{ID: model.NewNumericID(2), TypeName: "Shot", ShotOutcome: "Goal", Possession: &poss}

		Convey("Then encoding should emit the typed fields", func() {
			data, err := json.Marshal(e)
			So(err, ShouldBeNil)

			var back model.Event
			So(json.Unmarshal(data, &back), ShouldBeNil)
			So(back.ID.String(), ShouldEqual, "2")
			So(back.TypeName, ShouldEqual, "Shot")
			So(back.ShotOutcome, ShouldEqual, "Goal")
			So(*back.Possession, ShouldEqual, 10)
		})

		Convey("Then an encoder without HTML escaping should keep names verbatim", func() {
			e.TeamName = "Brighton & Hove Albion"
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			So(enc.Encode(e), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"Brighton & Hove Albion"`)
		})
	})
}

func TestID(t *testing.T) {
	Convey("Given identifiers in both encodings", t, func() {
		var s, n, z model.ID
		So(json.Unmarshal([]byte(`"2"`), &s), ShouldBeNil)
		So(json.Unmarshal([]byte(`2`), &n), ShouldBeNil)
		So(json.Unmarshal([]byte(`null`), &z), ShouldBeNil)

		Convey("Then they should share a join key", func() {
			So(s.String(), ShouldEqual, n.String())
			So(z.IsZero(), ShouldBeTrue)
			So(model.NewID("").IsZero(), ShouldBeTrue)
		})

		Convey("Then each should keep its original encoding", func() {
			sb, _ := json.Marshal(s)
			nb, _ := json.Marshal(n)
			zb, _ := json.Marshal(z)
			So(string(sb), ShouldEqual, `"2"`)
			So(string(nb), ShouldEqual, `2`)
			So(string(zb), ShouldEqual, `null`)
		})
	})
}

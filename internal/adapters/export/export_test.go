package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/parquet-go/parquet-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/epvprep/internal/adapters/export"
	"github.com/okian/epvprep/internal/domain/model"
)

const labeled360 = `[
	{"id":"e1","index":4,"minute":2,"type":{"name":"Pass"},"team":{"name":"Bayer Leverkusen"},"player":{"name":"Granit Xhaka"},"possession":3,"label":1,
	 "freeze_frame":[{"teammate":true,"actor":true,"keeper":false,"location":[61.2,40.1]},{"teammate":false,"actor":false,"keeper":true,"location":[118.0,40.0]}],
	 "visible_area":[0,0,120,0,120,80]},
	{"id":"e2","index":5,"minute":2,"type":{"name":"Carry"},"possession":null,"label":0,
	 "freeze_frame":[{"x":70.5,"y":22.0}],"visible_area":[]}
]`

func TestWriter(t *testing.T) {
	Convey("Given labeled events with 360 data", t, func() {
		ctx := context.Background()
		var events []model.Event
		So(json.Unmarshal([]byte(labeled360), &events), ShouldBeNil)
		w := export.NewWriter(t.TempDir())

		counts, err := w.Write(ctx, "3895302", events)

		Convey("Then one event row and one player row per entry should be written", func() {
			So(err, ShouldBeNil)
			So(counts.Events, ShouldEqual, 2)
			So(counts.Players, ShouldEqual, 3)
		})

		Convey("Then the event file should read back", func() {
			rows, err := parquet.ReadFile[export.EventRecord](w.EventsPath("3895302"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].EventID, ShouldEqual, "e1")
			So(rows[0].Team, ShouldEqual, "Bayer Leverkusen")
			So(*rows[0].Possession, ShouldEqual, 3)
			So(rows[0].Label, ShouldEqual, 1)
			So(rows[0].FreezeFrame, ShouldEqual, 2)
			So(rows[1].Possession, ShouldBeNil)
			So(rows[1].Index, ShouldEqual, 1)
		})

		Convey("Then the player file should carry locations", func() {
			rows, err := parquet.ReadFile[export.PlayerRecord](w.PlayersPath("3895302"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[1].Keeper, ShouldBeTrue)
			So(*rows[1].X, ShouldEqual, 118.0)
			So(*rows[2].Y, ShouldEqual, 22.0)
		})

		Convey("Then no temp files should remain", func() {
			entries, err := os.ReadDir(w.Dir())
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
		})
	})

	Convey("Given a freeze frame entry that is not an object", t, func() {
		e := model.Event{ID: model.NewID("bad"), Tracking: &model.Tracking{
			FreezeFrame: []json.RawMessage{json.RawMessage(`[1,2]`)},
		}}
		_, _, err := export.Records("1", []model.Event{e})

		So(errors.Is(err, export.ErrFreezeFrame), ShouldBeTrue)
	})
}

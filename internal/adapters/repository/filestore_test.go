package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/epvprep/internal/adapters/repository"
	"github.com/okian/epvprep/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreList(t *testing.T) {
	Convey("Given a stage directory with match files and noise", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		writeFile(t, dir, "3895309.json", `[]`)
		writeFile(t, dir, "3895302.json", `[]`)
		writeFile(t, dir, "notes.txt", `x`)
		writeFile(t, dir, ".3895302.123.tmp", `[]`)
		writeFile(t, dir, ".epvprep.lock", ``)
		So(os.Mkdir(filepath.Join(dir, "sub.json"), 0o755), ShouldBeNil)

		store := repository.NewFileStore(dir)

		Convey("Then only match files should be listed in order", func() {
			ids, err := store.ListMatches(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []string{"3895302", "3895309"})
			So(store.Exists(ctx, "3895302"), ShouldBeTrue)
			So(store.Exists(ctx, "sub"), ShouldBeFalse)
			So(store.Exists(ctx, "../x"), ShouldBeFalse)
		})
	})

	Convey("Given a directory that does not exist", t, func() {
		store := repository.NewFileStore(filepath.Join(t.TempDir(), "absent"))
		_, err := store.ListMatches(context.Background())

		So(errors.Is(err, repository.ErrMissingInput), ShouldBeTrue)
	})
}

func TestFileStoreReadWrite(t *testing.T) {
	Convey("Given a source events file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		writeFile(t, dir, "1.json", `[
			{"id":"u1","index":1,"type":{"id":35,"name":"Starting XI"},"team":{"name":"Brighton & Hove Albion"},"tactics":{"formation":442}},
			{"id":"u2","index":2,"type":{"name":"Pass"},"possession":2,"player":{"name":"Piero Hincapié"}}
		]`)
		store := repository.NewFileStore(dir)

		events, err := store.ReadEvents(ctx, "1")
		So(err, ShouldBeNil)
		So(events, ShouldHaveLength, 2)

		Convey("When the events are written back with derived fields", func() {
			events[0].Tracking = model.EmptyTracking()
			events[0].SetLabel(0)
			events[1].Tracking = model.EmptyTracking()
			events[1].SetLabel(0)
			So(store.WriteEvents(ctx, "1", events), ShouldBeNil)

			data, err := os.ReadFile(store.Path("1"))
			So(err, ShouldBeNil)
			text := string(data)

			Convey("Then the file should be indented and keep text verbatim", func() {
				So(strings.HasPrefix(text, "[\n  {\n"), ShouldBeTrue)
				So(text, ShouldContainSubstring, `"Brighton & Hove Albion"`)
				So(text, ShouldContainSubstring, `"Piero Hincapié"`)
			})

			Convey("Then unknown fields should survive a reread", func() {
				var raw []map[string]any
				So(json.Unmarshal(data, &raw), ShouldBeNil)
				So(raw[0]["tactics"], ShouldResemble, map[string]any{"formation": float64(442)})
				So(raw[1]["label"], ShouldEqual, 0)
				So(raw[1]["freeze_frame"], ShouldResemble, []any{})
			})

			Convey("Then no temp files should remain", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				for _, e := range entries {
					So(strings.HasSuffix(e.Name(), ".tmp"), ShouldBeFalse)
				}
			})

			Convey("Then a second write should replace the file", func() {
				So(store.WriteEvents(ctx, "1", events[:1]), ShouldBeNil)
				again, err := store.ReadEvents(ctx, "1")
				So(err, ShouldBeNil)
				So(again, ShouldHaveLength, 1)
			})
		})

		Convey("When frames are written", func() {
			frames := []model.TrackingFrame{{
				EventUUID:   model.NewID("u1"),
				FreezeFrame: []json.RawMessage{json.RawMessage(`{"x":1,"y":2}`)},
				VisibleArea: []json.RawMessage{},
			}}
			So(store.WriteFrames(ctx, "f1", frames), ShouldBeNil)
			got, err := store.ReadFrames(ctx, "f1")

			Convey("Then they should read back unchanged", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].EventUUID.String(), ShouldEqual, "u1")
				So(got[0].FreezeFrame, ShouldHaveLength, 1)
			})
		})

		Convey("When an empty match is written", func() {
			So(store.WriteEvents(ctx, "empty", nil), ShouldBeNil)
			got, err := store.ReadEvents(ctx, "empty")

			Convey("Then it should read back as an empty array", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})

	Convey("Given frames on disk", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "7.json", `[{"event_uuid":"u2","freeze_frame":[{"teammate":true,"actor":true,"keeper":false,"location":[1,2]}],"visible_area":[0,0,1,1]}]`)
		frames, err := repository.NewFileStore(dir).ReadFrames(context.Background(), "7")

		So(err, ShouldBeNil)
		So(frames, ShouldHaveLength, 1)
		So(frames[0].EventUUID.String(), ShouldEqual, "u2")
		So(frames[0].VisibleArea, ShouldHaveLength, 4)
	})
}

func TestFileStoreErrors(t *testing.T) {
	Convey("Given broken inputs", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := repository.NewFileStore(dir)
		writeFile(t, dir, "bad.json", `[{"id":1},`)
		writeFile(t, dir, "object.json", `{"id":1}`)
		writeFile(t, dir, "null.json", `null`)
		writeFile(t, dir, "trailing.json", `[] []`)
		writeFile(t, dir, "badpos.json", `[{"id":1,"possession":"x"}]`)

		Convey("Then a missing file should be reported as missing", func() {
			_, err := store.ReadEvents(ctx, "404")
			So(errors.Is(err, repository.ErrMissingInput), ShouldBeTrue)
		})

		Convey("Then undecodable files should be reported as malformed", func() {
			for _, id := range []string{"bad", "object", "null", "trailing", "badpos"} {
				_, err := store.ReadEvents(ctx, id)
				So(errors.Is(err, repository.ErrMalformedInput), ShouldBeTrue)
			}
		})

		Convey("Then path-like match ids should be refused", func() {
			_, err := store.ReadEvents(ctx, "../bad")
			So(errors.Is(err, repository.ErrInvalidMatchID), ShouldBeTrue)
			So(errors.Is(store.WriteEvents(ctx, "", nil), repository.ErrInvalidMatchID), ShouldBeTrue)
		})

		Convey("Then a cancelled context should stop reads", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.ReadEvents(cctx, "bad")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFileStoreLock(t *testing.T) {
	Convey("Given a stage directory", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "merged")
		first := repository.NewFileStore(dir)
		second := repository.NewFileStore(dir)

		unlock, err := first.Lock(ctx)
		So(err, ShouldBeNil)

		Convey("When a second run tries to lock it", func() {
			_, err := second.Lock(ctx)

			Convey("Then it should be refused", func() {
				So(errors.Is(err, repository.ErrLocked), ShouldBeTrue)
				So(unlock(), ShouldBeNil)
			})
		})

		Convey("When the first run releases it", func() {
			So(unlock(), ShouldBeNil)
			unlock2, err := second.Lock(ctx)

			Convey("Then the second run should get it", func() {
				So(err, ShouldBeNil)
				So(unlock2(), ShouldBeNil)
			})
		})
	})
}

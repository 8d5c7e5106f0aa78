package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/niicolenco/tikbattle/internal/domain/ledger"
	"github.com/niicolenco/tikbattle/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func readSnapshot(t *testing.T, path string) Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read session file: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("failed to unmarshal session file: %v", err)
	}
	return snap
}

func waitForFile(path string) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestStoreLoad(t *testing.T) {
	Convey("Given a session store", t, func() {
		dir := t.TempDir()

		Convey("Load with no file returns a zero snapshot", func() {
			store := NewStore(dir)
			snap, err := store.Load()
			So(err, ShouldBeNil)
			So(snap.TotalTaps, ShouldEqual, 0)
			So(snap.Stats.TotalDiamonds, ShouldEqual, 0)
		})

		Convey("Load reads back persisted totals", func() {
			path := filepath.Join(dir, FileName)
			content := `{"stats":{"totalDiamonds":120,"totalShares":7},"totalTaps":4500}`
			So(os.WriteFile(path, []byte(content), 0o644), ShouldBeNil)

			store := NewStore(dir)
			snap, err := store.Load()
			So(err, ShouldBeNil)
			So(snap.TotalTaps, ShouldEqual, 4500)
			So(snap.Stats.TotalDiamonds, ShouldEqual, 120)
			So(snap.Stats.TotalShares, ShouldEqual, 7)
		})

		Convey("Load tolerates a corrupt file", func() {
			path := filepath.Join(dir, FileName)
			So(os.WriteFile(path, []byte("{not json"), 0o644), ShouldBeNil)

			store := NewStore(dir)
			snap, err := store.Load()
			So(err, ShouldBeNil)
			So(snap, ShouldResemble, Snapshot{})
		})
	})
}

func TestStoreDebouncedSave(t *testing.T) {
	Convey("Given a store with a fake clock", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		clock := clockwork.NewFakeClock()
		store := NewStore(dir, WithClock(clock), WithDebounce(3*time.Second))

		Convey("Save does not write before the debounce window", func() {
			store.Save(Snapshot{TotalTaps: 10})
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Saves within the window coalesce to the latest snapshot", func() {
			store.Save(Snapshot{TotalTaps: 10})
			store.Save(Snapshot{TotalTaps: 20})
			store.Save(Snapshot{TotalTaps: 30, Stats: ledger.Stats{TotalDiamonds: 5}})

			clock.Advance(3 * time.Second)
			So(waitForFile(path), ShouldBeTrue)

			snap := readSnapshot(t, path)
			So(snap.TotalTaps, ShouldEqual, 30)
			So(snap.Stats.TotalDiamonds, ShouldEqual, 5)
		})

		Convey("Flush writes pending state immediately", func() {
			store.Save(Snapshot{TotalTaps: 99})
			So(store.Flush(), ShouldBeNil)

			snap := readSnapshot(t, path)
			So(snap.TotalTaps, ShouldEqual, 99)
		})

		Convey("Flush with nothing pending is a no-op", func() {
			So(store.Flush(), ShouldBeNil)
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	})
}

func TestStoreClear(t *testing.T) {
	Convey("Given a store with persisted totals", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		store := NewStore(dir)

		store.Save(Snapshot{TotalTaps: 500, Stats: ledger.Stats{TotalDiamonds: 40, TotalShares: 3}})
		So(store.Flush(), ShouldBeNil)

		Convey("Clear resets the file to zero", func() {
			So(store.Clear(), ShouldBeNil)

			snap := readSnapshot(t, path)
			So(snap, ShouldResemble, Snapshot{})

			loaded, err := store.Load()
			So(err, ShouldBeNil)
			So(loaded, ShouldResemble, Snapshot{})
		})

		Convey("Clear cancels a pending debounced save", func() {
			store.Save(Snapshot{TotalTaps: 9999})
			So(store.Clear(), ShouldBeNil)

			snap := readSnapshot(t, path)
			So(snap.TotalTaps, ShouldEqual, 0)
		})
	})
}

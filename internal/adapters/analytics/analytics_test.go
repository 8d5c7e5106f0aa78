package analytics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niicolenco/tikbattle/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("bad JSONL line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}
	return records
}

func TestRecorder(t *testing.T) {
	Convey("Given an analytics recorder", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, logsSubdir, FileName)

		Convey("Record appends one JSONL line per event", func() {
			rec := NewRecorder(dir)
			rec.Record("gift", map[string]any{"giftName": "Rose", "diamondCount": 1})
			rec.Record("like", map[string]any{"likeCount": 15})

			records := readRecords(t, path)
			So(records, ShouldHaveLength, 2)
			So(records[0].Type, ShouldEqual, "gift")
			So(records[1].Type, ShouldEqual, "like")
			So(records[0].Timestamp.IsZero(), ShouldBeFalse)

			data, ok := records[0].Data.(map[string]any)
			So(ok, ShouldBeTrue)
			So(data["giftName"], ShouldEqual, "Rose")
		})

		Convey("Record survives nil data", func() {
			rec := NewRecorder(dir)
			rec.Record("share", nil)

			records := readRecords(t, path)
			So(records, ShouldHaveLength, 1)
			So(records[0].Data, ShouldBeNil)
		})

		Convey("The active file rotates once it exceeds the limit", func() {
			rec := NewRecorder(dir, WithMaxSize(64))
			for i := 0; i < 10; i++ {
				rec.Record("gift", map[string]any{"giftName": "Galaxy", "diamondCount": 1000})
			}

			entries, err := os.ReadDir(filepath.Join(dir, logsSubdir))
			So(err, ShouldBeNil)
			So(len(entries), ShouldBeGreaterThan, 1)

			// The active file still exists and is parseable.
			records := readRecords(t, path)
			So(len(records), ShouldBeGreaterThan, 0)
		})
	})
}

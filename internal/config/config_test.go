package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niicolenco/tikbattle/internal/domain/goal"
	"github.com/niicolenco/tikbattle/internal/domain/team"
)

func TestDefaults(t *testing.T) {
	Convey("New returns sensible defaults", t, func() {
		cfg := New(context.Background())

		So(cfg.Addr, ShouldEqual, ":8080")
		So(cfg.RelayURL, ShouldEqual, "ws://127.0.0.1:21213/")
		So(cfg.LogLevel, ShouldEqual, "info")
		So(cfg.QueueSize, ShouldEqual, 10_000)
		So(cfg.SessionSaveDebounceMS, ShouldEqual, 3000)
		So(cfg.GiftLang, ShouldEqual, "es-419")
		So(cfg.AllowGiftsOffTimer, ShouldBeFalse)
		So(cfg.Teams, ShouldHaveLength, 4)
		So(cfg.Teams[0].ID, ShouldEqual, "team1")
		So(cfg.TapHeartColor, ShouldEqual, "#FF00FF")
		So(cfg.TotalGoalColor, ShouldEqual, "#FFD700")
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate enforces structural invariants", t, func() {
		base := func() *Config { return New(context.Background()) }

		Convey("defaults are valid", func() {
			So(base().Validate(), ShouldBeNil)
		})

		Convey("empty addr is rejected", func() {
			cfg := base()
			cfg.Addr = ""
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("non-positive queue size is rejected", func() {
			cfg := base()
			cfg.QueueSize = 0
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("duplicate team ids are rejected", func() {
			cfg := base()
			cfg.Teams = []team.Team{{ID: "a"}, {ID: "a"}}
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("team without id is rejected", func() {
			cfg := base()
			cfg.Teams = []team.Team{{Name: "sin id"}}
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("negative goal thresholds are rejected", func() {
			cfg := base()
			cfg.TapGoals = []goal.Goal{{Threshold: -1, Name: "mal"}}
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Load layers file and env over defaults", t, func() {
		ctx := context.Background()

		Convey("with nothing set it returns defaults", func() {
			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
		})

		Convey("a YAML file overrides defaults", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yaml := `
addr: ":9999"
allow_gifts_off_timer: true
tap_goals:
  - threshold: 10000
    name: "Fiesta"
teams:
  - id: rojo
    name: ROJO
    color: "#FF0000"
    gift_name: Rose
`
			So(os.WriteFile(path, []byte(yaml), 0o644), ShouldBeNil)
			t.Setenv("TIKBATTLE_CONFIG", path)

			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9999")
			So(cfg.AllowGiftsOffTimer, ShouldBeTrue)
			So(cfg.TapGoals, ShouldHaveLength, 1)
			So(cfg.TapGoals[0].Name, ShouldEqual, "Fiesta")
			So(cfg.Teams, ShouldHaveLength, 1)
			So(cfg.Teams[0].GiftName, ShouldEqual, "Rose")
			// untouched defaults survive
			So(cfg.RelayURL, ShouldEqual, "ws://127.0.0.1:21213/")
		})

		Convey("env vars override the file", func() {
			t.Setenv("TIKBATTLE_ADDR", ":7000")
			t.Setenv("TIKBATTLE_GIFT_LANG", "en-US")

			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7000")
			So(cfg.GiftLang, ShouldEqual, "en-US")
		})

		Convey("a missing config file is an error", func() {
			t.Setenv("TIKBATTLE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
			_, err := Load(ctx)
			So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
		})
	})
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"

	"github.com/niicolenco/tikbattle/internal/domain/goal"
	"github.com/niicolenco/tikbattle/internal/domain/team"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" json:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" json:"addr"`

	// RelayURL is the upstream relay WebSocket address.
	RelayURL string `koanf:"relay_url" json:"relay_url"`

	// DataDir holds the session file and the analytics logs directory.
	DataDir string `koanf:"data_dir" json:"data_dir"`

	// QueueSize bounds the in-memory relay event queue.
	QueueSize int `koanf:"queue_size" json:"queue_size"`

	// SessionSaveDebounceMS coalesces session file writes.
	SessionSaveDebounceMS int `koanf:"session_save_debounce_ms" json:"session_save_debounce_ms"`

	// GiftLang selects the gift catalog language.
	GiftLang string `koanf:"gift_lang" json:"gift_lang"`

	// GiftCatalogURL overrides the catalog endpoint (language appended).
	GiftCatalogURL string `koanf:"gift_catalog_url" json:"gift_catalog_url"`

	// AllowGiftsOffTimer lets gifts accrue battle points while the
	// round timer is not running.
	AllowGiftsOffTimer bool `koanf:"allow_gifts_off_timer" json:"allow_gifts_off_timer"`

	// Teams is the ordered team registry shown on the overlays.
	Teams []team.Team `koanf:"teams" json:"teams"`

	// TapGoals and PointGoals are the ordered milestone lists.
	TapGoals   []goal.Goal `koanf:"tap_goals" json:"tap_goals"`
	PointGoals []goal.Goal `koanf:"point_goals" json:"point_goals"`

	// Overlay accent colors.
	TapHeartColor  string `koanf:"tap_heart_color" json:"tap_heart_color"`
	TotalGoalColor string `koanf:"total_goal_color" json:"total_goal_color"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		RelayURL:              "ws://127.0.0.1:21213/",
		DataDir:               "data",
		QueueSize:             10_000,
		SessionSaveDebounceMS: 3000,
		GiftLang:              "es-419",
		AllowGiftsOffTimer:    false,
		Teams: []team.Team{
			{ID: "team1", Name: "EQUIPO 1", Color: "#FC5895"},
			{ID: "team2", Name: "EQUIPO 2", Color: "#83F3FF"},
			{ID: "team3", Name: "EQUIPO 3", Color: "#9D6FD5"},
			{ID: "team4", Name: "EQUIPO 4", Color: "#D65A4E"},
		},
		TapHeartColor:  "#FF00FF",
		TotalGoalColor: "#FFD700",
	}
}

package testevents

import "time"

// Config holds configuration for the battle simulation
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEvents     int           // Number of events to generate
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	BattleSeconds int           // Battle duration to start before the burst
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Event kinds generated by the simulator.
const (
	KindLike     = "like"
	KindGift     = "gift"
	KindTeamGift = "team_gift"
	KindShare    = "share"
)

// Event represents a synthetic viewer interaction
type Event struct {
	Kind     string `json:"kind"`
	Amount   int    `json:"amount,omitempty"`
	GiftName string `json:"gift_name,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	Points   int    `json:"points,omitempty"`
}

// Expected accumulates the totals the service should report after the
// burst is processed.
type Expected struct {
	Taps     int
	Diamonds int
	Shares   int
	TeamWins map[string]int // stream points per team from team gifts
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status string `json:"status"`
}

// StatsSnapshot mirrors the relevant part of the /api/stats payload.
type StatsSnapshot struct {
	Status       string             `json:"status"`
	Stats        SessionTotals      `json:"stats"`
	Scores       map[string]float64 `json:"scores"`
	StreamScores map[string]float64 `json:"stream_scores"`
	QueueLength  float64            `json:"queueLength"`
}

// SessionTotals mirrors the session counters in /api/stats.
type SessionTotals struct {
	Taps     float64 `json:"taps"`
	Diamonds float64 `json:"diamonds"`
	Shares   float64 `json:"shares"`
}

// Stats holds simulation statistics
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsFailed     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

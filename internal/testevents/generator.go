package testevents

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/niicolenco/tikbattle/pkg/logger"
)

// Constants for random number generation.
const (
	eventMixDivisor = 10
)

// Constants for the event mix. Roughly matching what a live stream
// produces: likes dominate, shares are rare, gifts sit in between.
const (
	caseLikeSmall  = 0 // 1-20 taps, most common
	caseLikeMedium = 3
	caseLikeBurst  = 5 // big tap batch
	caseGiftCheap  = 6
	caseGiftBig    = 7
	caseTeamGift   = 8
	caseShare      = 9
)

// Gift shapes used by the simulator. Points mirror real catalog
// diamond values.
var giftShapes = []struct {
	name   string
	points int
}{
	{"Rose", 1},
	{"Finger Heart", 5},
	{"Doughnut", 30},
	{"Hand Hearts", 100},
	{"Galaxy", 1000},
}

// getRandomInt returns a random int in [0, max) using crypto/rand.
func getRandomInt(maxValue int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(maxValue)))
	return int(n.Int64())
}

// generateEvents creates a burst of synthetic viewer events. teamIDs
// come from the live configuration so team gifts always hit a real
// team.
func generateEvents(ctx context.Context, config *Config, teamIDs []string, stats *Stats) ([]Event, *Expected, error) {
	logger.Get().Info(ctx, "generating viewer events", logger.Int("numEvents", config.NumEvents))

	events := make([]Event, 0, config.NumEvents)
	expected := &Expected{TeamWins: make(map[string]int)}

	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		event := generateSingleEvent(teamIDs)
		accumulate(expected, event)
		events = append(events, event)
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, expected, nil
}

// generateSingleEvent picks a weighted random event shape.
func generateSingleEvent(teamIDs []string) Event {
	switch c := getRandomInt(eventMixDivisor); {
	case c <= caseLikeMedium:
		return Event{Kind: KindLike, Amount: 1 + getRandomInt(20)}
	case c <= caseLikeBurst:
		return Event{Kind: KindLike, Amount: 50 + getRandomInt(200)}
	case c == caseGiftCheap:
		shape := giftShapes[getRandomInt(2)]
		return Event{Kind: KindGift, GiftName: shape.name, Points: shape.points}
	case c == caseGiftBig:
		shape := giftShapes[2+getRandomInt(len(giftShapes)-2)]
		return Event{Kind: KindGift, GiftName: shape.name, Points: shape.points}
	case c == caseTeamGift && len(teamIDs) > 0:
		shape := giftShapes[getRandomInt(len(giftShapes))]
		team := teamIDs[getRandomInt(len(teamIDs))]
		return Event{Kind: KindTeamGift, TeamID: team, GiftName: shape.name, Points: shape.points}
	default:
		return Event{Kind: KindShare, Amount: 1}
	}
}

// accumulate folds an event into the expected totals.
func accumulate(expected *Expected, event Event) {
	switch event.Kind {
	case KindLike:
		expected.Taps += event.Amount
	case KindGift:
		expected.Diamonds += event.Points
	case KindTeamGift:
		expected.Diamonds += event.Points
		expected.TeamWins[event.TeamID] += event.Points
	case KindShare:
		expected.Shares += event.Amount
	}
}

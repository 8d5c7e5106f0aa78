package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/niicolenco/tikbattle/pkg/logger"
)

// Run executes the complete battle simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting battle simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("battleSeconds", config.BattleSeconds),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch team IDs from the live configuration
	teamIDs, err := fetchTeamIDs(ctx, config)
	if err != nil {
		return fmt.Errorf("config retrieval failed: %w", err)
	}

	// Step 3: Capture baseline stats so deltas survive a warm service
	baseline, err := fetchStats(ctx, config)
	if err != nil {
		return fmt.Errorf("baseline stats retrieval failed: %w", err)
	}

	// Step 4: Start a battle so gifts accrue to team scores
	if err := startBattle(ctx, config); err != nil {
		return fmt.Errorf("battle start failed: %w", err)
	}

	// Step 5: Generate events
	events, expected, err := generateEvents(ctx, config, teamIDs, stats)
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	// Step 6: Submit events concurrently
	if err := submitEvents(ctx, config, events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 7: Wait for processing
	logger.Get().Info(ctx, "waiting for events to be processed")
	time.Sleep(ProcessingDelay)

	// Step 8: Fetch final stats and verify deltas
	final, err := fetchStats(ctx, config)
	if err != nil {
		return fmt.Errorf("final stats retrieval failed: %w", err)
	}
	if err := verifyResults(ctx, config, baseline, final, expected); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 9: Stop the battle
	if err := stopBattle(ctx, config); err != nil {
		logger.Get().Warn(ctx, "failed to stop battle", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// fetchTeamIDs reads the configured team IDs from /api/config.
func fetchTeamIDs(ctx context.Context, config *Config) ([]string, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/api/config")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("config request failed with status: %d", resp.StatusCode)
	}

	var payload struct {
		Teams []struct {
			ID string `json:"id"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse config response: %w", err)
	}

	ids := make([]string, 0, len(payload.Teams))
	for _, t := range payload.Teams {
		ids = append(ids, t.ID)
	}
	logger.Get().Info(ctx, "fetched team IDs", logger.Any("teams", ids))
	return ids, nil
}

// fetchStats reads the current service snapshot from /api/stats.
func fetchStats(ctx context.Context, config *Config) (*StatsSnapshot, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/api/stats")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("stats request failed with status: %d", resp.StatusCode)
	}

	var snapshot StatsSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse stats response: %w", err)
	}
	return &snapshot, nil
}

// startBattle starts a countdown so team gifts accrue battle points.
func startBattle(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Post(ctx, config.BaseURL+"/api/battle/start", map[string]int{"seconds": config.BattleSeconds})
	if err != nil {
		return fmt.Errorf("failed to start battle: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read battle start response: %w", err)
	}
	if resp.StatusCode != StatusAccepted {
		return fmt.Errorf("battle start failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "battle started", logger.Int("seconds", config.BattleSeconds))
	return nil
}

// stopBattle ends the running countdown.
func stopBattle(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Post(ctx, config.BaseURL+"/api/battle/stop", nil)
	if err != nil {
		return fmt.Errorf("failed to stop battle: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read battle stop response: %w", err)
	}
	if resp.StatusCode != StatusAccepted {
		return fmt.Errorf("battle stop failed with status: %d", resp.StatusCode)
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsSuccessful) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}

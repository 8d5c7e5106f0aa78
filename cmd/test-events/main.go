package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/niicolenco/tikbattle/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents     = 1000
	defaultBattleSeconds = 300
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultTestTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numEvents     = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		battleSeconds = flag.Int("battle", defaultBattleSeconds, "Battle duration in seconds to start before the burst")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile       = flag.String("log", "", "Log file for test output (default: battle_sim_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	// Setup logging
	if err := testevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create simulation configuration
	config := &testevents.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		Workers:       *workers,
		Timeout:       *timeout,
		BattleSeconds: *battleSeconds,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	// Run the simulation
	if err := testevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}

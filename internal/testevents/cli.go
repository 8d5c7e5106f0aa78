package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/niicolenco/tikbattle/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "battle_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the battle simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`TikBattle Simulation Tool
=========================

A concurrent tool for driving the battle overlay with synthetic viewer
events (likes, gifts, shares) and verifying the resulting scores.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -events int
        Number of events to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -battle int
        Battle duration in seconds to start before the burst (default 300)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for test output (default: battle_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/test-events/main.go

  # Heavier burst against a custom address
  go run cmd/test-events/main.go -events 10000 -workers 16 -url http://localhost:9090

  # Simulate with verbose output
  go run cmd/test-events/main.go -verbose -events 500
`)
}

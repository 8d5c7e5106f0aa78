// Package analytics appends every relay event to a JSONL file for
// offline analysis of stream behavior. Recording is strictly
// best-effort: a write failure never affects scoring.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

const (
	// FileName is the active log file name inside the logs directory.
	FileName = "events.jsonl"

	logsSubdir = "logs"
)

// Record is one line of the JSONL log.
type Record struct {
	Timestamp time.Time `json:"ts"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// Recorder appends records to a size-rotated JSONL file.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	path    string
	maxSize int64
	size    int64

	log logger.Logger
}

// NewRecorder creates a recorder writing under dataDir/logs.
func NewRecorder(dataDir string, opts ...Option) *Recorder {
	dir := filepath.Join(dataDir, logsSubdir)
	r := &Recorder{
		dir:     dir,
		path:    filepath.Join(dir, FileName),
		maxSize: defaultMaxSize,
		size:    -1, // unknown until first stat
		log:     logger.Named("analytics"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record appends one event line, rotating first if the file has grown
// past the size limit. Errors are logged and swallowed.
func (r *Recorder) Record(eventType string, data any) {
	line, err := json.Marshal(Record{
		Timestamp: time.Now(),
		Type:      eventType,
		Data:      data,
	})
	if err != nil {
		r.log.Warn(context.Background(), "failed to marshal analytics record",
			logger.Error(err), logger.String("type", eventType))
		metrics.RecordErrorByComponent("analytics", "marshal_failed")
		return
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.appendLocked(line); err != nil {
		r.log.Warn(context.Background(), "failed to append analytics record",
			logger.Error(err))
		metrics.RecordErrorByComponent("analytics", "append_failed")
	}
}

func (r *Recorder) appendLocked(line []byte) error {
	if r.size < 0 {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		if info, err := os.Stat(r.path); err == nil {
			r.size = info.Size()
		} else {
			r.size = 0
		}
	}

	if r.size > r.maxSize {
		if err := r.rotateLocked(); err != nil {
			return fmt.Errorf("rotate analytics log: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open analytics log: %w", err)
	}
	defer f.Close()

	n, err := f.Write(line)
	r.size += int64(n)
	if err != nil {
		return fmt.Errorf("write analytics log: %w", err)
	}
	return nil
}

// rotateLocked moves the active file aside under a timestamped name so
// appends continue on a fresh file.
func (r *Recorder) rotateLocked() error {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339))
	backup := filepath.Join(r.dir, fmt.Sprintf("events_%s.jsonl", stamp))
	if err := os.Rename(r.path, backup); err != nil {
		return err
	}
	r.size = 0
	r.log.Info(context.Background(), "rotated analytics log",
		logger.String("backup", backup))
	return nil
}

// Package session persists per-stream totals to disk so a crash or
// restart mid-stream does not lose the counters the overlays show.
//
// Writes are debounced: score updates arrive many times per second
// and only the latest snapshot matters.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niicolenco/tikbattle/internal/domain/ledger"
	"github.com/niicolenco/tikbattle/pkg/logger"
	"github.com/niicolenco/tikbattle/pkg/metrics"
)

// FileName is the session file name inside the data directory.
const FileName = "session_stats.json"

// Snapshot is the persisted session state.
type Snapshot struct {
	Stats     ledger.Stats `json:"stats"`
	TotalTaps int          `json:"totalTaps"`
}

// Store writes session snapshots to a JSON file with debounced saves.
type Store struct {
	mu      sync.Mutex
	path    string
	pending Snapshot
	dirty   bool
	timer   clockwork.Timer

	clock    clockwork.Clock
	debounce time.Duration
	log      logger.Logger
}

// NewStore creates a session store rooted at dataDir.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		path:     filepath.Join(dataDir, FileName),
		clock:    clockwork.NewRealClock(),
		debounce: defaultDebounce,
		log:      logger.Named("session"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the persisted snapshot. A missing file yields a zero
// snapshot without error.
func (s *Store) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read session file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt file should not take the engine down; start fresh.
		s.log.Warn(context.Background(), "session file corrupt, starting fresh",
			logger.Error(err), logger.String("path", s.path))
		return Snapshot{}, nil
	}
	return snap, nil
}

// Save records the snapshot and schedules a debounced write. Repeated
// calls within the debounce window coalesce into a single write of the
// latest snapshot.
func (s *Store) Save(snap Snapshot) {
	s.mu.Lock()
	s.pending = snap
	s.dirty = true
	if s.timer == nil {
		s.timer = s.clock.AfterFunc(s.debounce, s.fire)
	}
	s.mu.Unlock()
}

// Flush writes any pending snapshot immediately. Intended for shutdown.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snap := s.pending
	s.dirty = false
	s.mu.Unlock()

	return s.write(snap)
}

// Clear resets the persisted state to a zero snapshot immediately.
func (s *Store) Clear() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = Snapshot{}
	s.dirty = false
	s.mu.Unlock()

	return s.write(Snapshot{})
}

func (s *Store) fire() {
	s.mu.Lock()
	s.timer = nil
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	snap := s.pending
	s.dirty = false
	s.mu.Unlock()

	if err := s.write(snap); err != nil {
		s.log.Error(context.Background(), "debounced session save failed", logger.Error(err))
	}
}

func (s *Store) write(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		metrics.RecordSessionSaveError()
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		metrics.RecordSessionSaveError()
		metrics.RecordErrorByComponent("session", "mkdir_failed")
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		metrics.RecordSessionSaveError()
		metrics.RecordErrorByComponent("session", "write_failed")
		return fmt.Errorf("write session file: %w", err)
	}

	metrics.RecordSessionSave()
	return nil
}

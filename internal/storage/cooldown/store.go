package cooldown

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store enforces a minimum interval between a user's gated actions.
// Timestamps persist across restarts as a single JSON object mapping
// stringified user id to Unix seconds. All operations take one mutex, so
// Acquire is an atomic check-and-set even under concurrent webhook delivery.
type Store struct {
	mu     sync.Mutex
	path   string
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a cooldown store persisting to path.
func New(path string, window time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Check reports how long the user must still wait. throttled is false when
// the user has no recorded action or the window has elapsed.
func (s *Store) Check(userID int64) (remaining time.Duration, throttled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLocked(userID)
}

// Set records the current time as the user's last gated action.
func (s *Store) Set(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(userID)
}

// Acquire atomically checks the window and, if clear, records a fresh
// timestamp. Returns throttled=true with the remaining wait otherwise.
func (s *Store) Acquire(userID int64) (remaining time.Duration, throttled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remaining, throttled = s.checkLocked(userID); throttled {
		return remaining, true
	}
	if err := s.setLocked(userID); err != nil {
		s.logger.Error("persist cooldown failed", zap.Int64("user", userID), zap.Error(err))
	}
	return 0, false
}

func (s *Store) checkLocked(userID int64) (time.Duration, bool) {
	records := s.load()
	last, ok := records[strconv.FormatInt(userID, 10)]
	if !ok {
		return 0, false
	}

	elapsed := s.now().Unix() - last
	if window := int64(s.window / time.Second); elapsed < window {
		return time.Duration(window-elapsed) * time.Second, true
	}
	return 0, false
}

func (s *Store) setLocked(userID int64) error {
	records := s.load()
	records[strconv.FormatInt(userID, 10)] = s.now().Unix()

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal cooldowns: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write cooldowns: %w", err)
	}
	return nil
}

// load reads the full record. A missing or corrupt file is an empty record,
// not an error.
func (s *Store) load() map[string]int64 {
	records := make(map[string]int64)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("cooldown file corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return make(map[string]int64)
	}
	return records
}

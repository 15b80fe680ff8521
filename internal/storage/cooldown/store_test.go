package cooldown

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, window time.Duration) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "cooldowns.json"), window, nil)
}

func TestCheckUnknownUser(t *testing.T) {
	s := newTestStore(t, 10*time.Second)
	if _, throttled := s.Check(100); throttled {
		t.Error("Check(unknown user) throttled, want free")
	}
}

func TestSetThenCheckRoundTrip(t *testing.T) {
	s := newTestStore(t, 10*time.Second)
	if err := s.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}

	remaining, throttled := s.Check(100)
	if !throttled {
		t.Fatal("Check(just set) not throttled, want throttled")
	}
	if remaining <= 0 || remaining > 10*time.Second {
		t.Errorf("remaining = %v, want in (0, 10s]", remaining)
	}
}

func TestRemainingEqualsWindowMinusElapsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, 10*time.Second)
	s.now = func() time.Time { return now }

	if err := s.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(3 * time.Second)

	remaining, throttled := s.Check(100)
	if !throttled {
		t.Fatal("Check(3s into 10s window) not throttled")
	}
	if remaining != 7*time.Second {
		t.Errorf("remaining = %v, want 7s", remaining)
	}
}

func TestWindowExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, 10*time.Second)
	s.now = func() time.Time { return now }

	if err := s.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(10 * time.Second)

	if _, throttled := s.Check(100); throttled {
		t.Error("Check(window elapsed) throttled, want free")
	}
}

func TestAcquireThrottlesSecondCall(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, 10*time.Second)
	s.now = func() time.Time { return now }

	if _, throttled := s.Acquire(100); throttled {
		t.Fatal("first Acquire throttled, want free")
	}

	now = now.Add(4 * time.Second)

	remaining, throttled := s.Acquire(100)
	if !throttled {
		t.Fatal("second Acquire within window not throttled")
	}
	if remaining != 6*time.Second {
		t.Errorf("remaining = %v, want 6s", remaining)
	}
}

func TestIndependentUsers(t *testing.T) {
	s := newTestStore(t, 10*time.Second)
	if _, throttled := s.Acquire(100); throttled {
		t.Fatal("Acquire(100) throttled")
	}
	if _, throttled := s.Acquire(200); throttled {
		t.Error("Acquire(200) throttled by user 100's cooldown")
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, 10*time.Second, nil)
	if _, throttled := s.Check(100); throttled {
		t.Error("Check over corrupt file throttled, want free")
	}
	if err := s.Set(100); err != nil {
		t.Errorf("Set over corrupt file: %v", err)
	}
}

func TestMissingFileReadsAsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "cooldowns.json"), 10*time.Second, nil)
	if _, throttled := s.Check(100); throttled {
		t.Error("Check over missing file throttled, want free")
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")

	first := New(path, time.Hour, nil)
	if err := first.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := New(path, time.Hour, nil)
	if _, throttled := second.Check(100); !throttled {
		t.Error("cooldown not visible to a fresh store instance")
	}
}

package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func alice() Session {
	return Session{
		UserID:       "u-alice",
		Email:        "alice@example.com",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    t0.Add(time.Hour),
	}
}

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"zero", Session{}, false},
		{"with refresh", alice(), true},
		{"expired no refresh", Session{UserID: "u", AccessToken: "a", ExpiresAt: t0.Add(-time.Minute)}, false},
		{"unexpired no refresh", Session{UserID: "u", AccessToken: "a", ExpiresAt: t0.Add(time.Minute)}, true},
		{"no expiry", Session{UserID: "u", AccessToken: "a"}, true},
		{"no tokens", Session{UserID: "u"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(t0); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_CurrentEmpty(t *testing.T) {
	m := NewManager()
	if _, ok := m.Current(); ok {
		t.Error("new manager should have no valid session")
	}
}

// TestManager_NotifiesOnChange verifies subscribers see every distinct change
func TestManager_NotifiesOnChange(t *testing.T) {
	m := NewManager(WithClock(func() time.Time { return t0 }))

	var seen []string
	unsubscribe := m.Subscribe(func(s Session) { seen = append(seen, s.UserID) })
	defer unsubscribe()

	m.Set(alice())
	m.Set(alice()) // identical, no notification
	refreshed := alice()
	refreshed.AccessToken = "at-2"
	m.Set(refreshed)
	m.Clear()
	m.Clear() // already clear

	want := []string{"u-alice", "u-alice", ""}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}

	if s, ok := m.Current(); ok || s.UserID != "" {
		t.Errorf("Current() after Clear = %+v, %v", s, ok)
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()

	calls := 0
	unsubscribe := m.Subscribe(func(Session) { calls++ })
	m.Set(alice())
	unsubscribe()
	unsubscribe() // idempotent
	m.Clear()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestManager_SubscriberOrder(t *testing.T) {
	m := NewManager()

	var order []int
	for i := 0; i < 5; i++ {
		m.Subscribe(func(Session) { order = append(order, i) })
	}
	m.Set(alice())

	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

// TestManager_SubscriberMayReenter verifies callbacks run without the lock held
func TestManager_SubscriberMayReenter(t *testing.T) {
	m := NewManager(WithClock(func() time.Time { return t0 }))

	var inside Session
	m.Subscribe(func(Session) {
		inside, _ = m.Current()
	})
	m.Set(alice())

	if inside.UserID != "u-alice" {
		t.Errorf("Current() inside callback = %+v", inside)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	fs := NewFileStore(path)

	if _, err := fs.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load() on missing file error = %v, want ErrNoSession", err)
	}

	if err := fs.Save(alice()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("file mode = %o, want 600", mode)
	}

	got, err := fs.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !got.equal(alice()) {
		t.Errorf("Load() = %+v, want %+v", got, alice())
	}

	if err := fs.Remove(); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := fs.Remove(); err != nil {
		t.Errorf("second Remove() failed: %v", err)
	}
	if _, err := fs.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() after Remove error = %v, want ErrNoSession", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	if err := os.WriteFile(path, []byte("user_id = [unterminated"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, err := NewFileStore(path).Load(); err == nil || errors.Is(err, ErrNoSession) {
		t.Errorf("Load() error = %v, want decode error", err)
	}
}

func TestFileStore_RestoreAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	fs := NewFileStore(path)
	m := NewManager(WithClock(func() time.Time { return t0 }))

	if err := fs.Restore(m); err != nil {
		t.Fatalf("Restore() on missing file failed: %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatal("Restore() of missing file produced a session")
	}

	var persistErr error
	stop := fs.Persist(m, func(err error) { persistErr = err })
	defer stop()

	m.Set(alice())
	if persistErr != nil {
		t.Fatalf("persist failed: %v", persistErr)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	other := NewManager(WithClock(func() time.Time { return t0 }))
	if err := fs.Restore(other); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if s, ok := other.Current(); !ok || s.UserID != "u-alice" {
		t.Errorf("restored session = %+v, %v", s, ok)
	}

	m.Clear()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file should be removed after Clear, stat err = %v", err)
	}
}

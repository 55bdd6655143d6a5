package hotreload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type fakeReloadable struct {
	name    string
	reloads atomic.Int64
	err     error
	fired   chan struct{}
}

func newFakeReloadable(name string) *fakeReloadable {
	return &fakeReloadable{name: name, fired: make(chan struct{}, 10)}
}

func (f *fakeReloadable) Reload(ctx context.Context) error {
	f.reloads.Add(1)
	select {
	case f.fired <- struct{}{}:
	default:
	}
	return f.err
}

func (f *fakeReloadable) Name() string { return f.name }

func waitFired(t *testing.T, f *fakeReloadable) {
	t.Helper()
	select {
	case <-f.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reload never fired")
	}
}

func TestManagerReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	manager.SetDebounceTime(50 * time.Millisecond)

	if err := manager.AddWatch(path); err != nil {
		t.Fatalf("AddWatch failed: %v", err)
	}

	reloadable := newFakeReloadable("test")
	if err := manager.RegisterReloadable(reloadable); err != nil {
		t.Fatalf("RegisterReloadable failed: %v", err)
	}

	if err := manager.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	if !manager.IsRunning() {
		t.Error("manager should report running after Start")
	}

	if err := os.WriteFile(path, []byte("a,b\n3,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFired(t, reloadable)
	if reloadable.reloads.Load() == 0 {
		t.Error("file change did not trigger a reload")
	}
}

func TestManagerNotifiesListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}
	manager.SetDebounceTime(50 * time.Millisecond)

	if err := manager.AddWatch(path); err != nil {
		t.Fatal(err)
	}

	failing := newFakeReloadable("failing")
	failing.err = errors.New("broken table")
	if err := manager.RegisterReloadable(failing); err != nil {
		t.Fatal(err)
	}

	notified := make(chan error, 1)
	err = manager.AddListener("test-listener", func(ctx context.Context, events []Event, err error) {
		select {
		case notified <- err:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	if err := os.WriteFile(path, []byte("b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-notified:
		if err == nil {
			t.Error("listener should receive the reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener never notified")
	}
}

func TestCoordinatorDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}
	manager.SetDebounceTime(200 * time.Millisecond)

	if err := manager.AddWatch(path); err != nil {
		t.Fatal(err)
	}

	reloadable := newFakeReloadable("test")
	if err := manager.RegisterReloadable(reloadable); err != nil {
		t.Fatal(err)
	}

	if err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	// A burst of writes within the debounce window collapses to one reload
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFired(t, reloadable)
	time.Sleep(300 * time.Millisecond)

	if got := reloadable.reloads.Load(); got != 1 {
		t.Errorf("burst triggered %d reloads, want 1", got)
	}
}

func TestRegisterDuplicateReloadable(t *testing.T) {
	manager, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.RegisterReloadable(newFakeReloadable("dup")); err != nil {
		t.Fatal(err)
	}
	if err := manager.RegisterReloadable(newFakeReloadable("dup")); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestWatcherSkipsEditorChurn(t *testing.T) {
	watcher, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		skip bool
	}{
		{"/data/rates.csv", false},
		{"/data/rates.xlsx", false},
		{"/data/rates.csv.tmp", true},
		{"/data/.rates.csv.swp", true},
		{"/data/.hidden", true},
		{"/data/~rates.csv", true},
	}

	for _, tt := range tests {
		if got := watcher.shouldSkipEvent(tt.path); got != tt.skip {
			t.Errorf("shouldSkipEvent(%s) = %v, want %v", tt.path, got, tt.skip)
		}
	}
}

package session

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp is the kind of change observed on the session file.
type EventOp int

const (
	// OpSaved indicates the file was created or rewritten.
	OpSaved EventOp = iota
	// OpRemoved indicates the file was deleted or moved away.
	OpRemoved
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpSaved:
		return "saved"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event reports a session file change after it has been applied to the Manager.
type Event struct {
	Path string
	Op   EventOp
}

// Watcher reloads the session file into a Manager whenever another process
// logs in or out. The parent directory is watched rather than the file itself
// because FileStore.Save replaces the file by rename.
type Watcher struct {
	store   *FileStore
	manager *Manager
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewWatcher creates a Watcher feeding m from store.
// The watcher must be started with Start before it reacts to changes.
func NewWatcher(store *FileStore, m *Manager) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:   store,
		manager: m,
		watcher: fw,
		events:  make(chan Event, 16),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the session file's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}

	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch session directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and blocks until the event loop has exited.
// The Events and Errors channels are closed afterwards.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	wasRunning := w.running
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	if wasRunning {
		w.wg.Wait()
	}

	close(w.events)
	close(w.errors)

	return nil
}

// Events returns applied session file changes. Events are dropped when the
// channel is full.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns watch and reload errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			op, relevant := w.convertEvent(event)
			if !relevant {
				continue
			}
			if err := w.store.Restore(w.manager); err != nil {
				w.sendErr(err)
				continue
			}
			select {
			case w.events <- Event{Path: event.Name, Op: op}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.errors <- err:
	case <-w.done:
	}
}

// convertEvent maps an fsnotify event on the session file to an EventOp.
// Events for other files in the directory and chmod-only events are ignored.
func (w *Watcher) convertEvent(event fsnotify.Event) (EventOp, bool) {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return 0, false
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return OpSaved, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return OpRemoved, true
	default:
		return 0, false
	}
}

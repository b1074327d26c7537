// Package staging watches a local staging directory for files to upload.
//
// Administrators (or batch jobs) drop files into the staging directory
// named "<itemID>__<original-name>", e.g. "42__audit-report-2024.pdf".
// The uploader picks each settled file up, uploads it against the
// matching checklist item through the optimistic-mutation flow, and
// removes the staged copy.
package staging

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new staged file appeared.
	OpCreate EventOp = iota
	// OpModify indicates a staged file is still being written.
	OpModify
	// OpRemove indicates a staged file disappeared.
	OpRemove
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// StagedEvent represents a file system event for one staged file.
type StagedEvent struct {
	// Path is the absolute path of the staged file.
	Path string
	// ItemID is the checklist item parsed from the file name.
	ItemID int
	// FileName is the original file name (the part after "__").
	FileName string
	// Op is the operation that occurred.
	Op EventOp
}

// ParseStagedName splits a staged file name into checklist item id and
// original file name. Returns an error for names that do not follow the
// "<itemID>__<name>" convention.
func ParseStagedName(name string) (int, string, error) {
	base := filepath.Base(name)
	id, original, ok := strings.Cut(base, "__")
	if !ok || original == "" {
		return 0, "", fmt.Errorf("staged file %q does not match <itemID>__<name>", base)
	}
	itemID, err := strconv.Atoi(id)
	if err != nil || itemID <= 0 {
		return 0, "", fmt.Errorf("staged file %q has invalid item id %q", base, id)
	}
	return itemID, original, nil
}

// Watcher watches the staging directory for file changes.
// It uses fsnotify for cross-platform file system event monitoring.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan StagedEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	dir     string
}

// NewWatcher creates a new Watcher instance.
// The watcher must be started with Start() before it will emit events.
func NewWatcher() (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		events:  make(chan StagedEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the staging directory for changes.
func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	w.dir = dir

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch staging directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return nil
}

// Events returns the channel that emits StagedEvent notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Events() <-chan StagedEvent {
	return w.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// processEvents converts fsnotify events to StagedEvent notifications.
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

			if stagedEvent, ok := w.convertEvent(event); ok {
				select {
				case w.events <- stagedEvent:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a StagedEvent.
// Returns (StagedEvent{}, false) for events that should be ignored:
// hidden/partial files, names without an item id, chmod noise.
func (w *Watcher) convertEvent(event fsnotify.Event) (StagedEvent, bool) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".tmp") {
		return StagedEvent{}, false
	}

	itemID, original, err := ParseStagedName(event.Name)
	if err != nil {
		return StagedEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		// Treat rename as remove (the new name will trigger a create)
		op = OpRemove
	default:
		return StagedEvent{}, false
	}

	return StagedEvent{
		Path:     event.Name,
		ItemID:   itemID,
		FileName: original,
		Op:       op,
	}, true
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

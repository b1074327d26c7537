package staging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doctrackhq/doctrack/internal/checklist"
)

// FileUploader is the slice of the mutation flow the uploader needs:
// upload the file, rescan the item, publish the change events.
// Implemented by reconcile.Mutator.
type FileUploader interface {
	UploadFile(ctx context.Context, item checklist.Item, filename string, r io.Reader) error
}

// Config holds configuration for the uploader.
type Config struct {
	// DebounceInterval is how long a staged file must sit unchanged
	// before it is considered fully written and safe to upload.
	DebounceInterval time.Duration

	// Logger for uploader activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[staging] ", log.LstdFlags),
	}
}

// Uploader watches the staging directory and uploads settled files
// against their checklist items. Successfully uploaded files are removed
// from the staging directory; failed ones are left in place for retry on
// the next run.
type Uploader struct {
	dir      string
	items    map[int]checklist.Item
	uploader FileUploader
	config   *Config

	watcher *Watcher
	queue   map[string]time.Time // staged path -> last event time
	queueMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUploader creates an Uploader for the given staging directory.
// items is the active year's checklist; staged files whose item id is
// not in it are skipped with a warning.
func NewUploader(dir string, items []checklist.Item, uploader FileUploader, config *Config) (*Uploader, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging directory cannot be empty")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[staging] ", log.LstdFlags)
	}

	byID := make(map[int]checklist.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	watcher, err := NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Uploader{
		dir:      dir,
		items:    byID,
		uploader: uploader,
		config:   config,
		watcher:  watcher,
		queue:    make(map[string]time.Time),
	}, nil
}

// Start begins watching and uploading. It sweeps files already sitting
// in the staging directory, then processes new arrivals with debouncing.
// Blocks until ctx is cancelled.
func (u *Uploader) Start(ctx context.Context) error {
	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	ctx, u.cancel = context.WithCancel(ctx)
	defer u.cancel()

	u.config.Logger.Printf("Watching staging directory: %s", u.dir)

	if err := u.sweep(ctx); err != nil {
		return fmt.Errorf("initial staging sweep failed: %w", err)
	}

	if err := u.watcher.Start(u.dir); err != nil {
		return err
	}

	u.wg.Add(2)
	go u.watchEvents(ctx)
	go u.processQueue(ctx)

	<-ctx.Done()

	if err := u.watcher.Stop(); err != nil {
		u.config.Logger.Printf("Error stopping watcher: %v", err)
	}
	u.wg.Wait()

	u.config.Logger.Println("Staging uploader stopped")
	return ctx.Err()
}

// sweep uploads files already present in the staging directory.
func (u *Uploader) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(u.dir, entry.Name())
		if _, _, err := ParseStagedName(path); err != nil {
			continue
		}
		u.upload(ctx, path)
	}
	return nil
}

// watchEvents queues staged-file events for debounced processing.
func (u *Uploader) watchEvents(ctx context.Context) {
	defer u.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-u.watcher.Events():
			if !ok {
				return
			}
			if event.Op == OpRemove {
				u.queueMu.Lock()
				delete(u.queue, event.Path)
				u.queueMu.Unlock()
				continue
			}
			u.queueMu.Lock()
			u.queue[event.Path] = time.Now()
			u.queueMu.Unlock()

		case err, ok := <-u.watcher.Errors():
			if !ok {
				return
			}
			u.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processQueue uploads staged files that have sat unchanged for the
// debounce interval, so half-written files are not picked up.
func (u *Uploader) processQueue(ctx context.Context) {
	defer u.wg.Done()

	ticker := time.NewTicker(u.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			u.processSettled(ctx)
		}
	}
}

// processSettled uploads every queued file whose last event is older
// than the debounce interval.
func (u *Uploader) processSettled(ctx context.Context) {
	u.queueMu.Lock()
	var ready []string
	now := time.Now()
	for path, queuedAt := range u.queue {
		if now.Sub(queuedAt) >= u.config.DebounceInterval {
			ready = append(ready, path)
			delete(u.queue, path)
		}
	}
	u.queueMu.Unlock()

	for _, path := range ready {
		u.upload(ctx, path)
	}
}

// upload sends one staged file through the mutation flow and removes it
// on success.
func (u *Uploader) upload(ctx context.Context, path string) {
	itemID, original, err := ParseStagedName(path)
	if err != nil {
		u.config.Logger.Printf("Warning: skipping %s: %v", filepath.Base(path), err)
		return
	}

	item, ok := u.items[itemID]
	if !ok {
		u.config.Logger.Printf("Warning: staged file %s references unknown checklist item %d",
			filepath.Base(path), itemID)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return // removed between queue and upload
		}
		u.config.Logger.Printf("Error opening staged file %s: %v", path, err)
		return
	}

	err = u.uploader.UploadFile(ctx, item, original, f)
	_ = f.Close()
	if err != nil {
		u.config.Logger.Printf("Error uploading %s for item %d: %v", original, itemID, err)
		return
	}

	if err := os.Remove(path); err != nil {
		u.config.Logger.Printf("Warning: uploaded but failed to remove staged file %s: %v", path, err)
		return
	}

	u.config.Logger.Printf("Uploaded %s for item %d", original, itemID)
}

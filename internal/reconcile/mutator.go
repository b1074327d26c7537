package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/doctrackhq/doctrack/internal/bus"
	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/status"
)

// Mutator applies optimistic local cache writes for upload and delete
// operations and publishes the corresponding change events, so views
// update before the remote store is re-queried.
type Mutator struct {
	cache    *status.Cache
	verifier *Verifier
	bus      *bus.Bus
}

// NewMutator creates a Mutator sharing the verifier's cache and client.
func NewMutator(verifier *Verifier, changeBus *bus.Bus) *Mutator {
	return &Mutator{
		cache:    verifier.cache,
		verifier: verifier,
		bus:      changeBus,
	}
}

// DeleteFile removes a checklist item's file from the remote store.
//
// On success the item is immediately and unconditionally marked absent
// in the cache. The write is an explicit absent record, not a removal:
// anything falling back to a secondary lookup on an empty entry would
// otherwise resurrect the deleted file's metadata. The delete-completed
// event is published, followed by documents-changed with SkipRefresh
// set; no re-verification is triggered here, and subscribers must not
// trigger one either. A refetch at this point races against the store's
// own not-yet-committed delete and can re-populate the file from stale
// data.
//
// On failure the cache is left untouched (the file is presumed still
// present) and the error is returned for user-facing reporting.
func (m *Mutator) DeleteFile(ctx context.Context, item checklist.Item, fileID string) error {
	rec := m.cache.Get(item.ID)

	if err := m.verifier.client.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file %s for item %d: %w", fileID, item.ID, err)
	}

	m.cache.Set(item.ID, status.Absent())

	m.bus.Publish(bus.TopicDeleteCompleted, bus.Event{
		ItemID:   item.ID,
		Year:     item.Year,
		FileName: rec.Info.FileName,
	})
	m.bus.Publish(bus.TopicDocumentsChanged, bus.Event{
		ItemID:      item.ID,
		Year:        item.Year,
		SkipRefresh: true,
	})

	return nil
}

// UploadFile stores a file for a checklist item, rescans that single
// item so the cache reflects the store's view, and publishes the
// upload-completed and files-changed events. The rescan replaces a full
// re-verification of the year; a one-item round trip is all an upload
// needs.
//
// A rescan failure after a successful upload is logged but not returned:
// the item reads absent until the next verification pass confirms it.
func (m *Mutator) UploadFile(ctx context.Context, item checklist.Item, filename string, r io.Reader) error {
	group := item.Group(m.verifier.config.FallbackGroup)

	if err := m.verifier.client.UploadFile(ctx, group, item.Year, item.ID, filename, r); err != nil {
		return fmt.Errorf("failed to upload %s for item %d: %w", filename, item.ID, err)
	}

	if _, err := m.verifier.RescanItem(ctx, item); err != nil {
		m.verifier.config.Logger.Printf("Warning: post-upload rescan of item %d failed: %v", item.ID, err)
	}

	m.bus.Publish(bus.TopicUploadCompleted, bus.Event{
		ItemID:   item.ID,
		Year:     item.Year,
		FileName: filename,
	})
	m.bus.Publish(bus.TopicFilesChanged, bus.Event{
		ItemID: item.ID,
		Year:   item.Year,
	})

	return nil
}

// DownloadFile retrieves a checklist item's file from the remote store.
// Unlike verification, a download failure is surfaced to the caller; a
// silent failure here would hide missing evidence from the user.
func (m *Mutator) DownloadFile(ctx context.Context, item checklist.Item) (io.ReadCloser, string, error) {
	group := item.Group(m.verifier.config.FallbackGroup)

	body, name, err := m.verifier.client.DownloadFile(ctx, group, item.Year, item.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file for item %d: %w", item.ID, err)
	}
	return body, name, nil
}

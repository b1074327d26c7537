package reconcile

import (
	"context"

	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/status"
)

// RescanItem verifies exactly one checklist item against remote storage
// and updates the cache, without re-scanning the whole year. Used right
// after a single upload completes.
//
// The item is flagged as checking for the duration of the request. On a
// network or store failure the item is recorded absent (fail-closed) and
// the error is returned for logging; it is not a blocking failure.
func (v *Verifier) RescanItem(ctx context.Context, item checklist.Item) (status.Record, error) {
	year := v.cache.Year()
	group := item.Group(v.config.FallbackGroup)

	v.cache.MarkChecking(item.ID)
	defer v.cache.ClearChecking(item.ID)

	seen := v.cache.Version(item.ID)

	results, err := v.client.CheckFiles(ctx, group, year, []int{item.ID}, false)
	if err != nil {
		rec := status.Absent()
		v.cache.SetVerified(year, item.ID, seen, rec)
		v.config.Logger.Printf("Warning: rescan of item %d failed, marking absent: %v", item.ID, err)
		return rec, err
	}

	rec := status.Absent()
	if info, ok := results[item.ID]; ok && info.Exists {
		rec = status.Present(status.FileInfo{
			FileName:   info.FileName,
			Size:       info.Size,
			UploadedAt: info.LastModified,
			Note:       info.Note,
		})
	}
	v.cache.SetVerified(year, item.ID, seen, rec)

	return rec, nil
}

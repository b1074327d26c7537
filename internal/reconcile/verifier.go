package reconcile

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/filestore"
	"github.com/doctrackhq/doctrack/internal/status"
)

// Config holds verifier configuration.
type Config struct {
	// BatchSize is the maximum number of items per check-files request.
	BatchSize int

	// BatchDelay is the pause between consecutive batch requests, to
	// cap load on the remote endpoint.
	BatchDelay time.Duration

	// FallbackGroup is the grouping key for items with no assigned PIC.
	FallbackGroup string

	// Logger for verification activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:     10,
		BatchDelay:    100 * time.Millisecond,
		FallbackGroup: checklist.DefaultGroup,
		Logger:        log.New(os.Stderr, "[verify] ", log.LstdFlags),
	}
}

// Progress reports how many batches have resolved out of the total.
type Progress struct {
	Current int
	Total   int
}

// ProgressFunc is called after each batch resolves, success or failure.
type ProgressFunc func(Progress)

// VerifyOptions controls one VerifyYear run.
type VerifyOptions struct {
	// Authoritative requests filesystem-level verification from the
	// store instead of the fast index check. Used for manual refresh.
	Authoritative bool

	// Progress, if non-nil, receives {current, total} after each batch.
	Progress ProgressFunc
}

// Summary describes the outcome of one VerifyYear run.
type Summary struct {
	Items         int
	Batches       int
	FailedBatches int
	Present       int
	Absent        int
	Discarded     int
}

// Verifier performs batched existence checks against the remote store
// and writes results into the status cache.
type Verifier struct {
	cache  *status.Cache
	client filestore.Client
	config *Config
}

// NewVerifier creates a Verifier. A nil config uses DefaultConfig.
func NewVerifier(cache *status.Cache, client filestore.Client, config *Config) *Verifier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.FallbackGroup == "" {
		config.FallbackGroup = checklist.DefaultGroup
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[verify] ", log.LstdFlags)
	}
	return &Verifier{
		cache:  cache,
		client: client,
		config: config,
	}
}

// batch is one pending check-files request.
type batch struct {
	group string
	ids   []int
}

// VerifyYear verifies every checklist item for the active fiscal year.
//
// Items are grouped by responsible party and partitioned into batches of
// at most BatchSize ids. Batches run sequentially with BatchDelay
// between them. Every item is flagged as checking before the first
// request; each item's flag is cleared exactly once, when its own batch
// resolves. Results are written per batch so views update progressively.
//
// A failed batch marks its items absent and the loop continues. The only
// error VerifyYear returns is ctx's, when cancelled mid-run; remaining
// items then have their checking flags cleared without a status write.
func (v *Verifier) VerifyYear(ctx context.Context, items []checklist.Item, opts VerifyOptions) (Summary, error) {
	if len(items) == 0 {
		return Summary{}, nil
	}

	year := v.cache.Year()
	groups, names := checklist.GroupByPIC(items, v.config.FallbackGroup)

	// Build the full batch list up front so progress can report a total.
	var batches []batch
	for _, name := range names {
		for _, ids := range checklist.Partition(checklist.IDs(groups[name]), v.config.BatchSize) {
			batches = append(batches, batch{group: name, ids: ids})
		}
	}

	summary := Summary{Items: len(items), Batches: len(batches)}
	v.config.Logger.Printf("Verifying %d items for %d in %d batches across %d groups",
		len(items), year, len(batches), len(names))

	for _, it := range items {
		v.cache.MarkChecking(it.ID)
	}

	for i, b := range batches {
		if i > 0 && v.config.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				v.abandon(batches[i:])
				return summary, ctx.Err()
			case <-time.After(v.config.BatchDelay):
			}
		}
		if ctx.Err() != nil {
			v.abandon(batches[i:])
			return summary, ctx.Err()
		}

		v.verifyBatch(ctx, year, b, opts.Authoritative, &summary)

		if opts.Progress != nil {
			opts.Progress(Progress{Current: i + 1, Total: len(batches)})
		}
	}

	v.config.Logger.Printf("Verification complete: present=%d absent=%d failed_batches=%d discarded=%d",
		summary.Present, summary.Absent, summary.FailedBatches, summary.Discarded)

	return summary, nil
}

// verifyBatch issues one check-files request and writes its results.
func (v *Verifier) verifyBatch(ctx context.Context, year int, b batch, authoritative bool, summary *Summary) {
	// Capture per-item versions before dispatch; a mutation that lands
	// while the request is in flight invalidates our write.
	seen := make(map[int]uint64, len(b.ids))
	for _, id := range b.ids {
		seen[id] = v.cache.Version(id)
	}

	results, err := v.client.CheckFiles(ctx, b.group, year, b.ids, authoritative)
	if err != nil {
		// Fail closed: a document wrongly shown as missing is a nuisance,
		// a document wrongly shown as uploaded hides a compliance gap.
		v.config.Logger.Printf("Warning: batch for group %q failed, marking %d items absent: %v",
			b.group, len(b.ids), err)
		summary.FailedBatches++
		for _, id := range b.ids {
			if v.cache.SetVerified(year, id, seen[id], status.Absent()) {
				summary.Absent++
			} else {
				summary.Discarded++
			}
			v.cache.ClearChecking(id)
		}
		return
	}

	for _, id := range b.ids {
		rec := status.Absent()
		if info, ok := results[id]; ok && info.Exists {
			rec = status.Present(status.FileInfo{
				FileName:   info.FileName,
				Size:       info.Size,
				UploadedAt: info.LastModified,
				Note:       info.Note,
			})
		}

		if v.cache.SetVerified(year, id, seen[id], rec) {
			if rec.State == status.StatePresent {
				summary.Present++
			} else {
				summary.Absent++
			}
		} else {
			summary.Discarded++
		}
		v.cache.ClearChecking(id)
	}
}

// abandon clears checking flags for batches that will not run.
func (v *Verifier) abandon(remaining []batch) {
	for _, b := range remaining {
		for _, id := range b.ids {
			v.cache.ClearChecking(id)
		}
	}
}

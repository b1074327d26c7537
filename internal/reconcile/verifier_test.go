package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/filestore"
	"github.com/doctrackhq/doctrack/internal/status"
)

// checkCall records one CheckFiles invocation.
type checkCall struct {
	Group         string
	Year          int
	ItemIDs       []int
	Authoritative bool
}

// uploadCall records one UploadFile invocation.
type uploadCall struct {
	Group    string
	Year     int
	ItemID   int
	Filename string
	Body     string
}

// fakeClient is an in-memory filestore.Client for tests.
type fakeClient struct {
	mu      sync.Mutex
	calls   []checkCall
	uploads []uploadCall
	deleted []string

	// results answers CheckFiles; ids not present read as non-existent.
	results map[int]filestore.FileInfo

	// errGroups fails CheckFiles for the named groups.
	errGroups map[string]bool

	uploadErr    error
	deleteErr    error
	downloadErr  error
	downloadName string
	downloadBody string

	// When non-nil, CheckFiles signals on started and then blocks until
	// release is closed. Used to hold a batch in flight.
	started chan struct{}
	release chan struct{}
}

func (f *fakeClient) CheckFiles(ctx context.Context, group string, year int, itemIDs []int, authoritative bool) (map[int]filestore.FileInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, checkCall{Group: group, Year: year, ItemIDs: append([]int(nil), itemIDs...), Authoritative: authoritative})
	errGroup := f.errGroups[group]
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if errGroup {
		return nil, errors.New("store unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]filestore.FileInfo, len(itemIDs))
	for _, id := range itemIDs {
		if info, ok := f.results[id]; ok {
			out[id] = info
		} else {
			out[id] = filestore.FileInfo{Exists: false}
		}
	}
	return out, nil
}

func (f *fakeClient) UploadFile(ctx context.Context, group string, year, itemID int, filename string, r io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, _ := io.ReadAll(r)
	f.mu.Lock()
	f.uploads = append(f.uploads, uploadCall{Group: group, Year: year, ItemID: itemID, Filename: filename, Body: string(data)})
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) DownloadFile(ctx context.Context, group string, year, itemID int) (io.ReadCloser, string, error) {
	if f.downloadErr != nil {
		return nil, "", f.downloadErr
	}
	return io.NopCloser(strings.NewReader(f.downloadBody)), f.downloadName, nil
}

func (f *fakeClient) DeleteFile(ctx context.Context, fileID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	f.deleted = append(f.deleted, fileID)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) checkCalls() []checkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]checkCall(nil), f.calls...)
}

// testConfig returns a quiet verifier config with no inter-batch delay.
func testConfig() *Config {
	return &Config{
		BatchSize:     10,
		BatchDelay:    0,
		FallbackGroup: checklist.DefaultGroup,
		Logger:        log.New(io.Discard, "", 0),
	}
}

// makeItems builds n items for year with the given responsible party.
func makeItems(n, startID, year int, pic string) []checklist.Item {
	items := make([]checklist.Item, n)
	for i := range items {
		items[i] = checklist.Item{ID: startID + i, Year: year, Description: "doc", PIC: pic}
	}
	return items
}

// TestVerifyYearBatching verifies grouping, partitioning, and progress
// reporting: 23 items in one group and 3 in another yield four requests.
func TestVerifyYearBatching(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{results: map[int]filestore.FileInfo{
		1: {Exists: true, FileName: "a.pdf", Size: 100},
	}}
	v := NewVerifier(cache, client, testConfig())

	items := append(makeItems(23, 1, 2024, "Finance"), makeItems(3, 100, 2024, "Legal")...)

	var progress []Progress
	summary, err := v.VerifyYear(context.Background(), items, VerifyOptions{
		Progress: func(p Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("VerifyYear() failed: %v", err)
	}

	calls := client.checkCalls()
	if len(calls) != 4 {
		t.Fatalf("got %d requests, want 4 (23 items -> 3 batches, 3 items -> 1)", len(calls))
	}
	wantSizes := map[string][]int{"Finance": {10, 10, 3}, "Legal": {3}}
	got := map[string][]int{}
	for _, c := range calls {
		got[c.Group] = append(got[c.Group], len(c.ItemIDs))
		if c.Year != 2024 {
			t.Errorf("request year = %d, want 2024", c.Year)
		}
		if c.Authoritative {
			t.Error("fast verification set the authoritative flag")
		}
	}
	for group, sizes := range wantSizes {
		if len(got[group]) != len(sizes) {
			t.Errorf("group %s got %d batches, want %d", group, len(got[group]), len(sizes))
		}
	}

	if len(progress) != 4 {
		t.Fatalf("got %d progress callbacks, want 4", len(progress))
	}
	for i, p := range progress {
		if p.Current != i+1 || p.Total != 4 {
			t.Errorf("progress[%d] = %+v, want {%d 4}", i, p, i+1)
		}
	}

	if summary.Items != 26 || summary.Batches != 4 {
		t.Errorf("summary = %+v, want 26 items in 4 batches", summary)
	}
	if summary.Present != 1 || summary.Absent != 25 {
		t.Errorf("summary = %+v, want present=1 absent=25", summary)
	}
	if cache.CheckingCount() != 0 {
		t.Errorf("%d items still flagged checking after completion", cache.CheckingCount())
	}
	if !cache.IsUploaded(1) {
		t.Error("item 1 should read as uploaded")
	}
	if cache.IsUploaded(2) {
		t.Error("item 2 should read as missing")
	}
}

// TestVerifyYearProgressiveWrites verifies results land in the cache
// batch by batch, not all at the end.
func TestVerifyYearProgressiveWrites(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{results: map[int]filestore.FileInfo{}}
	for i := 1; i <= 20; i++ {
		client.results[i] = filestore.FileInfo{Exists: true, FileName: "f.pdf"}
	}
	v := NewVerifier(cache, client, testConfig())

	var afterFirst int
	_, err := v.VerifyYear(context.Background(), makeItems(20, 1, 2024, "Ops"), VerifyOptions{
		Progress: func(p Progress) {
			if p.Current == 1 {
				present, _ := cache.Counts()
				afterFirst = present
			}
		},
	})
	if err != nil {
		t.Fatalf("VerifyYear() failed: %v", err)
	}

	if afterFirst != 10 {
		t.Errorf("after first batch %d items were present, want 10", afterFirst)
	}
}

// TestVerifyYearFailClosed verifies a failed batch marks its items
// absent and later batches still run.
func TestVerifyYearFailClosed(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{
		results:   map[int]filestore.FileInfo{100: {Exists: true, FileName: "ok.pdf"}},
		errGroups: map[string]bool{"Finance": true},
	}
	v := NewVerifier(cache, client, testConfig())

	items := append(makeItems(5, 1, 2024, "Finance"), makeItems(1, 100, 2024, "Legal")...)
	summary, err := v.VerifyYear(context.Background(), items, VerifyOptions{})
	if err != nil {
		t.Fatalf("VerifyYear() failed: %v", err)
	}

	if summary.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", summary.FailedBatches)
	}
	for i := 1; i <= 5; i++ {
		if cache.Get(i).State != status.StateAbsent {
			t.Errorf("item %d state = %v after failed batch, want absent", i, cache.Get(i).State)
		}
	}
	// The Legal batch after the failure still resolved normally
	if !cache.IsUploaded(100) {
		t.Error("item 100 should read as uploaded despite the earlier failure")
	}
	if cache.CheckingCount() != 0 {
		t.Errorf("%d items still flagged checking", cache.CheckingCount())
	}
}

// TestVerifyYearEmptyChecklist verifies no requests for an empty year.
func TestVerifyYearEmptyChecklist(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{}
	v := NewVerifier(cache, client, testConfig())

	summary, err := v.VerifyYear(context.Background(), nil, VerifyOptions{})
	if err != nil {
		t.Fatalf("VerifyYear() failed: %v", err)
	}
	if summary != (Summary{}) {
		t.Errorf("summary = %+v, want zero", summary)
	}
	if len(client.checkCalls()) != 0 {
		t.Errorf("empty checklist issued %d requests, want 0", len(client.checkCalls()))
	}
}

// TestVerifyYearAuthoritative verifies the deep-check flag reaches
// every request.
func TestVerifyYearAuthoritative(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{}
	v := NewVerifier(cache, client, testConfig())

	_, err := v.VerifyYear(context.Background(), makeItems(12, 1, 2024, "Ops"), VerifyOptions{Authoritative: true})
	if err != nil {
		t.Fatalf("VerifyYear() failed: %v", err)
	}

	for i, c := range client.checkCalls() {
		if !c.Authoritative {
			t.Errorf("request %d did not carry the authoritative flag", i)
		}
	}
}

// TestVerifyYearCancellation verifies a cancelled context stops the run
// and clears the remaining checking flags.
func TestVerifyYearCancellation(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{}
	cfg := testConfig()
	cfg.BatchDelay = 10 * time.Millisecond
	v := NewVerifier(cache, client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := v.VerifyYear(ctx, makeItems(30, 1, 2024, "Ops"), VerifyOptions{
		Progress: func(p Progress) {
			if p.Current == 1 {
				cancel()
			}
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("VerifyYear() error = %v, want context.Canceled", err)
	}

	if got := len(client.checkCalls()); got != 1 {
		t.Errorf("got %d requests after cancellation, want 1", got)
	}
	if cache.CheckingCount() != 0 {
		t.Errorf("%d items still flagged checking after cancellation", cache.CheckingCount())
	}
}

// TestVerifyYearDefaults verifies a nil config is usable.
func TestVerifyYearDefaults(t *testing.T) {
	cache := status.NewCache(2024)
	client := &fakeClient{}
	v := NewVerifier(cache, client, nil)

	if v.config.BatchSize != 10 {
		t.Errorf("default BatchSize = %d, want 10", v.config.BatchSize)
	}
	if v.config.FallbackGroup != checklist.DefaultGroup {
		t.Errorf("default FallbackGroup = %q, want %q", v.config.FallbackGroup, checklist.DefaultGroup)
	}
}

// Package status provides the in-memory file-status cache.
//
// The cache holds a tri-state record (unknown, absent, present) per
// checklist item for the currently active fiscal year, plus the set of
// items currently being verified against remote storage. All views read
// this cache synchronously; only the reconcile package writes to it.
//
// Writes come in two flavors with different authority:
//
//   - Mutation writes (Set) record the outcome of a local operation the
//     user just performed, such as a delete. They always win and bump the
//     item's version.
//   - Verification writes (SetVerified) record a remote existence check.
//     They carry the fiscal year and the item version observed when the
//     request was dispatched, and are discarded if the year is no longer
//     active or a mutation happened after dispatch. This keeps an
//     optimistic delete from being resurrected by a stale in-flight
//     verification response.
package status

import (
	"sync"
	"time"
)

// State is the verification state of one checklist item's file.
type State int

const (
	// StateUnknown means the item has not been checked this session.
	StateUnknown State = iota
	// StateAbsent means the file is confirmed missing, or was just
	// deleted locally. Authoritative until the next verification.
	StateAbsent
	// StatePresent means the file is confirmed to exist in remote storage.
	StatePresent
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// FileInfo carries the display metadata of a confirmed file.
type FileInfo struct {
	FileName   string
	Size       int64
	UploadedAt time.Time
	Note       string
}

// Record is one item's cached file status. The zero value is unknown.
type Record struct {
	State State
	Info  FileInfo
}

// Absent returns an explicit absent record.
func Absent() Record {
	return Record{State: StateAbsent}
}

// Present returns a present record carrying file metadata.
func Present(info FileInfo) Record {
	return Record{State: StatePresent, Info: info}
}

// Cache is the process-wide file-status store, scoped to one fiscal year.
// Safe for concurrent use by any number of readers and writers.
type Cache struct {
	mu       sync.RWMutex
	year     int
	records  map[int]Record
	checking map[int]bool
	versions map[int]uint64
}

// NewCache creates an empty cache for the given fiscal year.
func NewCache(year int) *Cache {
	return &Cache{
		year:     year,
		records:  make(map[int]Record),
		checking: make(map[int]bool),
		versions: make(map[int]uint64),
	}
}

// Year returns the currently active fiscal year.
func (c *Cache) Year() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.year
}

// ResetYear switches the active fiscal year and discards all cached
// records, checking flags, and versions. Must be called whenever the
// displayed year changes; the whole cache is stale at that point.
func (c *Cache) ResetYear(year int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.year = year
	c.records = make(map[int]Record)
	c.checking = make(map[int]bool)
	c.versions = make(map[int]uint64)
}

// Get returns the item's record. Missing entries read as unknown.
func (c *Cache) Get(itemID int) Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[itemID]
}

// Set unconditionally overwrites the item's record and bumps its version.
// This is the mutation write: it represents a local operation whose
// outcome must not be overwritten by any verification already in flight.
func (c *Cache) Set(itemID int, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[itemID] = rec
	c.versions[itemID]++
}

// Version returns the item's current mutation version. Verifiers capture
// this before dispatching a request and pass it back to SetVerified.
func (c *Cache) Version(itemID int) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[itemID]
}

// SetVerified applies a verification result for a request that was
// dispatched while year was active and the item was at version seen.
// The write is discarded (returning false) when the year is no longer
// active or a mutation has bumped the version since dispatch.
// Verification writes never bump the version.
func (c *Cache) SetVerified(year, itemID int, seen uint64, rec Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if year != c.year {
		return false
	}
	if c.versions[itemID] != seen {
		return false
	}

	c.records[itemID] = rec
	return true
}

// MarkChecking flags the item as currently being verified.
func (c *Cache) MarkChecking(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checking[itemID] = true
}

// ClearChecking removes the item's being-verified flag.
func (c *Cache) ClearChecking(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checking, itemID)
}

// IsChecking reports whether the item is currently being verified.
func (c *Cache) IsChecking(itemID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checking[itemID]
}

// CheckingCount returns the number of items currently being verified.
func (c *Cache) CheckingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.checking)
}

// IsUploaded reports whether the item has a confirmed file. Unknown
// reads as false: the UI must not claim a document exists before the
// remote store has confirmed it.
func (c *Cache) IsUploaded(itemID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[itemID].State == StatePresent
}

// Snapshot returns a copy of all non-unknown records, keyed by item id.
func (c *Cache) Snapshot() map[int]Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int]Record, len(c.records))
	for id, rec := range c.records {
		out[id] = rec
	}
	return out
}

// Counts returns how many cached records are present and absent.
func (c *Cache) Counts() (present, absent int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rec := range c.records {
		switch rec.State {
		case StatePresent:
			present++
		case StateAbsent:
			absent++
		}
	}
	return present, absent
}

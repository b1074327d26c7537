// Package filestore is the client for the remote file store.
//
// The remote store is the authoritative record of which checklist items
// have an uploaded file. Its HTTP API is a fixed contract consumed here:
// batched existence checks, single-file download, delete by storage file
// id, and multipart upload.
package filestore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound indicates the requested file does not exist remotely.
	ErrNotFound = errors.New("file not found")

	// ErrRemote indicates the store rejected or failed the request.
	ErrRemote = errors.New("remote file store error")
)

// FileInfo is the remote store's answer for one checklist item.
type FileInfo struct {
	Exists       bool      `json:"exists"`
	FileName     string    `json:"fileName"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Note         string    `json:"note,omitempty"`
}

// Client is the remote file-store API surface the engine depends on.
// Implementations must be safe for concurrent use.
type Client interface {
	// CheckFiles performs one batched existence check for the given
	// group key, fiscal year, and checklist item ids. When authoritative
	// is true the store verifies against its filesystem rather than its
	// index; slower but used for manual refresh. The result is keyed by
	// item id and covers every requested id.
	CheckFiles(ctx context.Context, group string, year int, itemIDs []int, authoritative bool) (map[int]FileInfo, error)

	// UploadFile stores a file against a checklist item. The caller owns r.
	UploadFile(ctx context.Context, group string, year, itemID int, filename string, r io.Reader) error

	// DownloadFile retrieves a checklist item's file. The caller must
	// close the returned stream. The second return value is the stored
	// file name.
	DownloadFile(ctx context.Context, group string, year, itemID int) (io.ReadCloser, string, error)

	// DeleteFile removes a file by its storage-assigned identifier,
	// which is distinct from the checklist item id.
	DeleteFile(ctx context.Context, fileID string) error
}

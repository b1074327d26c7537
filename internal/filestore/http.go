package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient implements Client against the file store's HTTP API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPClient creates a client for the store at baseURL. A zero
// timeout defaults to 30 seconds.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// checkRequest is the wire shape of one batched existence check.
type checkRequest struct {
	Group            string `json:"group"`
	Year             int    `json:"year"`
	ItemIDs          []int  `json:"itemIds"`
	VerifyFilesystem bool   `json:"verifyFilesystem"`
}

// checkResponse maps item id (as a JSON object key) to its file info.
type checkResponse struct {
	Results map[string]FileInfo `json:"results"`
}

// CheckFiles implements Client.CheckFiles.
func (c *HTTPClient) CheckFiles(ctx context.Context, group string, year int, itemIDs []int, authoritative bool) (map[int]FileInfo, error) {
	body, err := json.Marshal(checkRequest{
		Group:            group,
		Year:             year,
		ItemIDs:          itemIDs,
		VerifyFilesystem: authoritative,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/check", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check-files request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode check response: %w", err)
	}

	results := make(map[int]FileInfo, len(out.Results))
	for key, info := range out.Results {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("check response has non-numeric item id %q: %w", key, err)
		}
		results[id] = info
	}
	return results, nil
}

// UploadFile implements Client.UploadFile via multipart POST.
func (c *HTTPClient) UploadFile(ctx context.Context, group string, year, itemID int, filename string, r io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"group": group,
		"year":  strconv.Itoa(year),
		"item":  strconv.Itoa(itemID),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write upload field %s: %w", name, err)
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to buffer upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

// DownloadFile implements Client.DownloadFile.
func (c *HTTPClient) DownloadFile(ctx context.Context, group string, year, itemID int) (io.ReadCloser, string, error) {
	q := url.Values{}
	q.Set("group", group)
	q.Set("year", strconv.Itoa(year))
	q.Set("item", strconv.Itoa(itemID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/download?"+q.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}

	if err := c.checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}

	filename := downloadFilename(resp.Header.Get("Content-Disposition"))
	return resp.Body, filename, nil
}

// DeleteFile implements Client.DeleteFile.
func (c *HTTPClient) DeleteFile(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

// checkStatus converts non-2xx responses into errors, reading a short
// body snippet for context.
func (c *HTTPClient) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(string(snippet)))
	}
	return fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// downloadFilename extracts the filename from a Content-Disposition
// header, falling back to "download" when absent or malformed.
func downloadFilename(header string) string {
	if header == "" {
		return "download"
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "download"
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return "download"
}

package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	ports "arbdash/internal/sheets"
)

// maxExportBytes caps the size of a downloaded tab.
const maxExportBytes = 16 << 20

var _ ports.Fetcher = (*ExportFetcher)(nil)

// ErrExportTooLarge means the tab is bigger than the download cap.
var ErrExportTooLarge = errors.New("export exceeds size limit")

// StatusError is a non-2xx answer from the export endpoint. Private sheets
// answer 401/403; a redirect to a login page surfaces as NotCSVError.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("export %s: unexpected status %d", e.URL, e.StatusCode)
}

// NotCSVError is a 2xx answer whose body is not CSV, typically the sign-in
// page a private sheet redirects to.
type NotCSVError struct {
	ContentType string
	URL         string
}

func (e *NotCSVError) Error() string {
	return fmt.Sprintf("export %s: got %q instead of csv", e.URL, e.ContentType)
}

// ExportFetcher downloads tabs anonymously through the public CSV export.
// The sheet must be shared as viewable by anyone with the link.
type ExportFetcher struct {
	client   *http.Client
	baseURL  string
	maxBytes int64
}

// NewExportFetcher returns a fetcher hitting baseURL (DefaultBaseURL when
// empty). A nil client gets a pooled client with the given timeout.
func NewExportFetcher(client *http.Client, baseURL string, timeout time.Duration) *ExportFetcher {
	if client == nil {
		client = newHTTPClientWithPooling(timeout)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ExportFetcher{client: client, baseURL: baseURL, maxBytes: maxExportBytes}
}

func (f *ExportFetcher) FetchCSV(ctx context.Context, sheetID, tabID string) (string, error) {
	endpoint := ExportURL(f.baseURL, sheetID, tabID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}
	contentType := resp.Header.Get("Content-Type")
	if !csvContentType(contentType) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &NotCSVError{ContentType: contentType, URL: endpoint}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", endpoint, err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("read %s: %w (%d bytes)", endpoint, ErrExportTooLarge, f.maxBytes)
	}
	if looksLikeHTML(body) {
		return "", &NotCSVError{ContentType: contentType, URL: endpoint}
	}
	return string(body), nil
}

// csvContentType accepts text/csv and text/plain. A missing header is let
// through and left to the body check.
func csvContentType(header string) bool {
	if header == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "text/csv" || mediaType == "text/plain"
}

func looksLikeHTML(body []byte) bool {
	head := bytes.TrimPrefix(body[:min(len(body), 512)], []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	for _, prefix := range []string{"<!doctype", "<html"} {
		if len(head) >= len(prefix) && bytes.EqualFold(head[:len(prefix)], []byte(prefix)) {
			return true
		}
	}
	return false
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// dial and TLS timeouts and an overall request timeout.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

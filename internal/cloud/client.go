// Package cloud is a client for the note vendor's cloud API. It covers the
// login handshake, folder listings and file downloads, and maps HTTP
// failures onto the package error vocabulary.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultHost is the production API endpoint.
	DefaultHost = "https://cloud.supernote.com/api"

	accessTokenHeader = "x-access-token"
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"

	// Signed download URLs are short-lived; cache lookups briefly so a
	// burst of page requests for one file resolves the URL once.
	downloadURLTTL = time.Minute
)

// TokenSource supplies a valid access token for API requests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// AccessToken implements TokenSource.
func (t StaticToken) AccessToken(context.Context) (string, error) { return string(t), nil }

type cachedURL struct {
	url     string
	fetched time.Time
}

// Client makes authenticated requests against the cloud API.
type Client struct {
	httpClient *http.Client
	host       string
	tokens     TokenSource

	urlMu    sync.Mutex
	urlCache map[int64]cachedURL
	now      func() time.Time
}

// NewClient creates a Client. host may be empty to use DefaultHost; tokens
// may be nil for unauthenticated endpoints (the login handshake).
func NewClient(httpClient *http.Client, host string, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		httpClient: httpClient,
		host:       strings.TrimSuffix(host, "/"),
		tokens:     tokens,
		urlCache:   make(map[int64]cachedURL),
		now:        time.Now,
	}
}

// FileList returns the contents of one remote folder. Folder id 0 is the
// account root.
func (c *Client) FileList(ctx context.Context, directoryID int64) (*FileListResponse, error) {
	req := fileListRequest{
		DirectoryID: directoryID,
		PageNo:      1,
		PageSize:    100,
		Order:       "time",
		Sequence:    "desc",
	}
	var resp FileListResponse
	if err := c.postJSON(ctx, "file/list/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FileDownload fetches the raw bytes of a file. The download URL is
// resolved through the API and cached briefly.
func (c *Client) FileDownload(ctx context.Context, fileID int64) ([]byte, error) {
	url, err := c.downloadURL(ctx, fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading download body: %v", ErrAPI, err)
	}
	return data, nil
}

func (c *Client) downloadURL(ctx context.Context, fileID int64) (string, error) {
	c.urlMu.Lock()
	if entry, ok := c.urlCache[fileID]; ok && c.now().Sub(entry.fetched) < downloadURLTTL {
		c.urlMu.Unlock()
		return entry.url, nil
	}
	c.urlMu.Unlock()

	var resp fileDownloadURLResponse
	if err := c.postJSON(ctx, "file/download/url", fileDownloadURLRequest{ID: fileID}, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("%w: empty download url for file %d", ErrAPI, fileID)
	}

	c.urlMu.Lock()
	c.urlCache[fileID] = cachedURL{url: resp.URL, fetched: c.now()}
	c.urlMu.Unlock()
	return resp.URL, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrAPI, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/"+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPI, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("%w: resolving access token: %v", ErrUnauthorized, err)
		}
		if token != "" {
			req.Header.Set(accessTokenHeader, token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrAPI, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %v", ErrAPI, path, err)
	}
	if !out.ok() {
		return fmt.Errorf("%w: %s: %s", ErrAPI, path, out.errorMessage())
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrUnauthorized, resp.StatusCode, readDetail(resp))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, readDetail(resp))
	}
}

func readDetail(resp *http.Response) string {
	detail, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return ""
	}
	return string(detail)
}

package server

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"notecloud/internal/cloud"
	"notecloud/internal/store"
)

type fakeRemote struct {
	listResp     *cloud.FileListResponse
	downloadData []byte
}

func (f *fakeRemote) FileList(ctx context.Context, directoryID int64) (*cloud.FileListResponse, error) {
	return f.listResp, nil
}

func (f *fakeRemote) FileDownload(ctx context.Context, fileID int64) ([]byte, error) {
	return f.downloadData, nil
}

type fakeConverter struct{}

type fakeDoc struct{}

func (fakeConverter) Parse(data []byte) (store.Document, error) { return fakeDoc{}, nil }

func (fakeDoc) PageCount() int { return 2 }

func (fakeDoc) PageID(index int) (string, error) {
	if index < 0 || index >= 2 {
		return "", fmt.Errorf("page %d out of range", index)
	}
	return fmt.Sprintf("pid%d", index), nil
}

func (fakeDoc) RenderPage(index int) ([]byte, error) {
	return []byte(fmt.Sprintf("png-bytes-%d", index)), nil
}

type dropNotifier struct{}

func (dropNotifier) NotifyReauth() {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	noteData := []byte("note-content")
	sum := md5.Sum(noteData)
	remote := &fakeRemote{
		listResp: &cloud.FileListResponse{FileList: []cloud.FileEntry{
			{ID: 111, DirectoryID: 0, FileName: "Work", IsFolder: "Y"},
			{ID: 333, DirectoryID: 0, FileName: "Note.note", IsFolder: "N", MD5: hex.EncodeToString(sum[:]), Size: int64(len(noteData))},
			{ID: 444, DirectoryID: 0, FileName: "export.pdf", IsFolder: "N", MD5: "ffff"},
		}},
		downloadData: noteData,
	}

	root := t.TempDir()
	cache := store.NewMetadataCache(store.NewFileStore(filepath.Join(root, "folder_contents.json")))
	st := store.New(store.Config{StorageRoot: root, CacheTTL: time.Hour},
		remote, cache, fakeConverter{}, dropNotifier{})

	registry := NewRegistry()
	registry.Add(&Account{Scope: "acct-1", Title: "user@example.com", Store: st})

	ts := httptest.NewServer(New(":0", registry).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestBrowseRootListsAccounts(t *testing.T) {
	ts := newTestServer(t)
	var nodes []BrowseNode
	getJSON(t, ts.URL+"/api/browse", &nodes)
	if len(nodes) != 1 {
		t.Fatalf("got %d accounts", len(nodes))
	}
	if nodes[0].Identifier != "acct-1/d/0" || !nodes[0].IsExpandable {
		t.Errorf("account root = %+v", nodes[0])
	}
}

func TestBrowseFolderListsChildren(t *testing.T) {
	ts := newTestServer(t)
	var nodes []BrowseNode
	resp := getJSON(t, ts.URL+"/api/browse/acct-1/d/0", &nodes)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d children: %+v", len(nodes), nodes)
	}
	if nodes[0].Identifier != "acct-1/d/0/111" || !nodes[0].IsExpandable {
		t.Errorf("folder child = %+v", nodes[0])
	}
	if nodes[1].Identifier != "acct-1/f/0/333" || !nodes[1].IsExpandable {
		t.Errorf("note child = %+v", nodes[1])
	}
	// Non-note files are listed but not expandable.
	if nodes[2].DisplayName != "export.pdf" || nodes[2].IsExpandable {
		t.Errorf("pdf child = %+v", nodes[2])
	}
}

func TestBrowseNoteFileListsPages(t *testing.T) {
	ts := newTestServer(t)
	var nodes []BrowseNode
	resp := getJSON(t, ts.URL+"/api/browse/acct-1/f/0/333", &nodes)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d pages: %+v", len(nodes), nodes)
	}
	if nodes[0].Identifier != "acct-1/p/0/333/0" || nodes[0].DisplayName != "Note-000-pid0" {
		t.Errorf("page node = %+v", nodes[0])
	}
	if nodes[1].Identifier != "acct-1/p/0/333/1" || nodes[1].IsExpandable {
		t.Errorf("page node = %+v", nodes[1])
	}
}

func TestBrowseRejects(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name string
		path string
		want int
	}{
		{"malformed identifier", "/api/browse/garbage", http.StatusBadRequest},
		{"unknown scope", "/api/browse/nobody/d/0", http.StatusBadRequest},
		{"page not browsable", "/api/browse/acct-1/p/0/333/0", http.StatusBadRequest},
		{"file missing from listing", "/api/browse/acct-1/f/0/999", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getJSON(t, ts.URL+tc.path, nil)
			if resp.StatusCode != tc.want {
				t.Errorf("GET %s = %d, want %d", tc.path, resp.StatusCode, tc.want)
			}
		})
	}
}

func TestItemContentServesPNG(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/item_content/acct-1:p:0:333:0")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	var body [64]byte
	n, _ := resp.Body.Read(body[:])
	if string(body[:n]) != "png-bytes-0" {
		t.Errorf("body = %q", body[:n])
	}
}

func TestItemContentRejects(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name string
		path string
		want int
	}{
		{"malformed identifier", "/item_content/garbage", http.StatusBadRequest},
		{"not a page identifier", "/item_content/acct-1:d:0", http.StatusBadRequest},
		{"unknown scope", "/item_content/nobody:p:0:333:0", http.StatusBadRequest},
		{"file missing from listing", "/item_content/acct-1:p:0:999:0", http.StatusNotFound},
		{"page out of range", "/item_content/acct-1:p:0:333:9", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getJSON(t, ts.URL+tc.path, nil)
			if resp.StatusCode != tc.want {
				t.Errorf("GET %s = %d, want %d", tc.path, resp.StatusCode, tc.want)
			}
		})
	}
}

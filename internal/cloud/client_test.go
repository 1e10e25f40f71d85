package cloud

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFileList(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/list/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotToken = r.Header.Get("x-access-token")
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["directoryId"] != "0" {
			t.Errorf("directoryId = %v, want \"0\"", req["directoryId"])
		}
		w.Write([]byte(`{
			"success": true,
			"total": 2,
			"userFileVOList": [
				{"id": "111", "directoryId": "0", "fileName": "Work", "isFolder": "Y", "createTime": 1, "updateTime": 2},
				{"id": "333", "directoryId": "0", "fileName": "Note.note", "isFolder": "N", "md5": "abc", "size": 10, "createTime": 3, "updateTime": 4}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, StaticToken("tok-1"))
	resp, err := c.FileList(context.Background(), 0)
	if err != nil {
		t.Fatalf("FileList failed: %v", err)
	}
	if gotToken != "tok-1" {
		t.Errorf("access token header = %q", gotToken)
	}
	if len(resp.FileList) != 2 {
		t.Fatalf("got %d entries, want 2", len(resp.FileList))
	}
	if resp.FileList[0].IsFolder != IsFolderFlag || resp.FileList[0].ID != 111 {
		t.Errorf("folder entry = %+v", resp.FileList[0])
	}
	if resp.FileList[1].FileName != "Note.note" || resp.FileList[1].MD5 != "abc" {
		t.Errorf("file entry = %+v", resp.FileList[1])
	}
}

func TestFileListUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, StaticToken("stale"))
	if _, err := c.FileList(context.Background(), 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestFileListEnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "errorMsg": "directory gone"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, StaticToken("tok"))
	_, err := c.FileList(context.Background(), 5)
	if !errors.Is(err, ErrAPI) {
		t.Errorf("error = %v, want ErrAPI", err)
	}
}

func TestFileDownloadCachesURL(t *testing.T) {
	urlCalls := 0
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/file/download/url", func(w http.ResponseWriter, r *http.Request) {
		urlCalls++
		json.NewEncoder(w).Encode(map[string]any{"success": true, "url": srv.URL + "/signed/blob"})
	})
	mux.HandleFunc("/signed/blob", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("note-bytes"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, StaticToken("tok"))
	for i := 0; i < 2; i++ {
		data, err := c.FileDownload(context.Background(), 333)
		if err != nil {
			t.Fatalf("FileDownload failed: %v", err)
		}
		if string(data) != "note-bytes" {
			t.Errorf("downloaded %q", data)
		}
	}
	if urlCalls != 1 {
		t.Errorf("download URL resolved %d times, want 1", urlCalls)
	}
}

func TestLogin(t *testing.T) {
	const (
		password   = "hunter2"
		randomCode = "rc-99"
	)
	inner := md5.Sum([]byte(password))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + randomCode))
	wantPassword := hex.EncodeToString(outer[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/official/user/query/random/code", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "randomCode": randomCode, "timestamp": "1700000000000"})
	})
	mux.HandleFunc("/official/user/account/login/new", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != wantPassword {
			t.Errorf("password = %v, want %v", req["password"], wantPassword)
		}
		if req["timestamp"] != "1700000000000" {
			t.Errorf("timestamp = %v", req["timestamp"])
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "tok-new"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLoginClient(NewClient(srv.Client(), srv.URL, nil))
	token, err := l.Login(context.Background(), "user@example.com", password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-new" {
		t.Errorf("token = %q", token)
	}
}

// Package store reconciles the remote folder/file tree against a local
// on-disk cache. It is the single authority for what a folder currently
// contains and for the bytes and rendered pages of a note file.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"notecloud/internal/cloud"
)

// DefaultCacheTTL is how long a cached folder listing stays fresh.
const DefaultCacheTTL = time.Hour

// RemoteClient is the cloud collaborator the store reconciles against.
type RemoteClient interface {
	FileList(ctx context.Context, directoryID int64) (*cloud.FileListResponse, error)
	FileDownload(ctx context.Context, fileID int64) ([]byte, error)
}

// ReauthNotifier receives the reauthentication signal raised when a
// remote call is rejected for authorization reasons. The store emits the
// signal and propagates the error; it never waits or retries.
type ReauthNotifier interface {
	NotifyReauth()
}

// ReauthSignal is a channel-backed ReauthNotifier. Notifications are
// non-blocking; a signal raised while one is already pending is dropped,
// since a single pending reauthentication covers both.
type ReauthSignal struct {
	ch chan struct{}
}

// NewReauthSignal creates a ReauthSignal.
func NewReauthSignal() *ReauthSignal {
	return &ReauthSignal{ch: make(chan struct{}, 1)}
}

// NotifyReauth implements ReauthNotifier.
func (s *ReauthSignal) NotifyReauth() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Signals returns the channel the host consumes.
func (s *ReauthSignal) Signals() <-chan struct{} {
	return s.ch
}

// Config carries the store's explicit knobs. Now defaults to time.Now and
// exists so tests can drive the TTL clock.
type Config struct {
	// StorageRoot is the account-scoped directory for downloaded
	// documents and rendered pages.
	StorageRoot string
	CacheTTL    time.Duration
	Now         func() time.Time
}

// Store masks remote latency and failures behind the metadata cache and
// the on-disk file cache.
//
// No lock guards either cache: concurrent misses for the same key may
// each fetch remotely and the last write wins. Entries are idempotent
// whole snapshots, so a racing write wastes a remote call but never
// corrupts data.
type Store struct {
	cfg    Config
	client RemoteClient
	cache  *MetadataCache
	conv   Converter
	reauth ReauthNotifier
}

// New creates a Store.
func New(cfg Config, client RemoteClient, cache *MetadataCache, conv Converter, reauth ReauthNotifier) *Store {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{cfg: cfg, client: client, cache: cache, conv: conv, reauth: reauth}
}

// GetFolderContents returns a folder's children, served from the metadata
// cache when fresh and refreshed from the remote API otherwise.
func (s *Store) GetFolderContents(ctx context.Context, folderID int64) (*FolderContents, error) {
	cached, ok, err := s.cache.Get(folderID)
	if err != nil {
		return nil, err
	}
	if ok && !cached.Expired(s.cfg.Now(), s.cfg.CacheTTL) {
		return cached, nil
	}

	resp, err := s.client.FileList(ctx, folderID)
	if err != nil {
		if errors.Is(err, cloud.ErrUnauthorized) {
			s.reauth.NotifyReauth()
		}
		return nil, err
	}

	var files []FileInfo
	var folders []FolderInfo
	for _, entry := range resp.FileList {
		if entry.IsFolder == cloud.IsFolderFlag {
			folders = append(folders, FolderInfo{
				FolderID:       entry.ID,
				ParentFolderID: entry.DirectoryID,
				Name:           entry.FileName,
				CreateTime:     entry.CreateTime,
				UpdateTime:     entry.UpdateTime,
			})
		} else {
			files = append(files, FileInfo{
				FileID:         entry.ID,
				ParentFolderID: entry.DirectoryID,
				Name:           entry.FileName,
				MD5:            entry.MD5,
				Size:           entry.Size,
				CreateTime:     entry.CreateTime,
				UpdateTime:     entry.UpdateTime,
			})
		}
	}
	contents, err := NewFolderContents(folderID, files, folders, s.cfg.Now())
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// GetNotePageNames returns the stable name of each page of a note file,
// ensuring the document bytes are cached locally first.
func (s *Store) GetNotePageNames(ctx context.Context, file FileInfo) ([]string, error) {
	notebook, err := s.notebookFile(ctx, file)
	if err != nil {
		return nil, err
	}
	return notebook.PageNames(), nil
}

// GetNotePNG returns the rendered image of one page, rendering and
// persisting it on first access.
func (s *Store) GetNotePNG(ctx context.Context, file FileInfo, pageIndex int) ([]byte, error) {
	notebook, err := s.notebookFile(ctx, file)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(notebook.PageNames()) {
		return nil, fmt.Errorf("%w: page %d of %d in %s", ErrPageOutOfRange, pageIndex, len(notebook.PageNames()), file.Name)
	}

	if data, err := notebook.ReadPNG(pageIndex); err != nil {
		return nil, err
	} else if data != nil {
		return data, nil
	}

	if err := notebook.SavePNG(pageIndex); err != nil {
		return nil, err
	}
	data, err := notebook.ReadPNG(pageIndex)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: render of %s page %d produced no file", ErrConversionFailed, file.Name, pageIndex)
	}
	return data, nil
}

func (s *Store) localFilePath(file FileInfo) string {
	return filepath.Join(s.cfg.StorageRoot, strconv.FormatInt(file.ParentFolderID, 10), file.Name)
}

// notebookFile ensures the note bytes for file are present and current on
// local disk, downloading them if absent or stale, and returns the parsed
// document.
func (s *Store) notebookFile(ctx context.Context, file FileInfo) (*NotebookFile, error) {
	if !strings.HasSuffix(file.Name, NoteSuffix) {
		return nil, fmt.Errorf("%w: %q is not a note file", ErrInvalidArgument, file.Name)
	}
	localPath := s.localFilePath(file)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(localPath), err)
	}

	if data, err := os.ReadFile(localPath); err == nil {
		if hashHex(data) == file.MD5 {
			return newNotebookFile(s.conv, data, file.Name, localPath)
		}
		// Stale copy; discard unconditionally and re-download.
		if err := os.Remove(localPath); err != nil {
			return nil, fmt.Errorf("removing stale %s: %w", localPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", localPath, err)
	}

	data, err := s.client.FileDownload(ctx, file.FileID)
	if err != nil {
		if errors.Is(err, cloud.ErrUnauthorized) {
			s.reauth.NotifyReauth()
		}
		return nil, err
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", localPath, err)
	}
	if got := hashHex(data); got != file.MD5 {
		// The stated hash can be stale listing metadata; trust the bytes.
		log.Printf("[store] downloaded %s has hash %s, listing said %s", file.Name, got, file.MD5)
	}

	notebook, err := newNotebookFile(s.conv, data, file.Name, localPath)
	if err != nil {
		return nil, err
	}
	// The content changed, so previously rendered pages are invalid.
	if err := notebook.ClearPNGCache(); err != nil {
		return nil, err
	}
	return notebook, nil
}

func hashHex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

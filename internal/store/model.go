package store

import (
	"fmt"
	"time"
)

// Node is the closed union of the two child kinds a folder can hold.
// Only FileInfo and FolderInfo implement it; consumers type-switch over
// both and treat anything else as a programming error.
type Node interface {
	NodeID() int64
	NodeName() string
	node()
}

// FileInfo is one remote file's metadata as last observed. It is an
// immutable snapshot, superseded wholesale when the folder listing is
// refreshed.
type FileInfo struct {
	FileID         int64  `json:"file_id"`
	ParentFolderID int64  `json:"parent_folder_id"`
	Name           string `json:"name"`
	MD5            string `json:"md5"`
	Size           int64  `json:"size"`
	CreateTime     int64  `json:"create_time"`
	UpdateTime     int64  `json:"update_time"`
}

func (f FileInfo) NodeID() int64    { return f.FileID }
func (f FileInfo) NodeName() string { return f.Name }
func (FileInfo) node()              {}

// FolderInfo is one remote folder's metadata as last observed.
type FolderInfo struct {
	FolderID       int64  `json:"folder_id"`
	ParentFolderID int64  `json:"parent_folder_id"`
	Name           string `json:"name"`
	CreateTime     int64  `json:"create_time,omitempty"`
	UpdateTime     int64  `json:"update_time,omitempty"`
}

func (f FolderInfo) NodeID() int64    { return f.FolderID }
func (f FolderInfo) NodeName() string { return f.Name }
func (FolderInfo) node()              {}

// FolderContents is the cached snapshot of one folder's children. It is
// replaced, never mutated, on refresh.
type FolderContents struct {
	FolderID       int64        `json:"folder_id"`
	FileChildren   []FileInfo   `json:"file_children"`
	FolderChildren []FolderInfo `json:"folder_children"`
	CachedAt       time.Time    `json:"cache_timestamp"`
}

// NewFolderContents builds a snapshot, rejecting any id shared between a
// file child and a folder child.
func NewFolderContents(folderID int64, files []FileInfo, folders []FolderInfo, cachedAt time.Time) (*FolderContents, error) {
	seen := make(map[int64]string, len(files)+len(folders))
	for _, f := range folders {
		seen[f.FolderID] = f.Name
	}
	for _, f := range files {
		if name, ok := seen[f.FileID]; ok {
			return nil, fmt.Errorf("%w: id %d used by both folder %q and file %q", ErrIntegrity, f.FileID, name, f.Name)
		}
	}
	return &FolderContents{
		FolderID:       folderID,
		FileChildren:   files,
		FolderChildren: folders,
		CachedAt:       cachedAt,
	}, nil
}

// Expired reports whether the snapshot is older than ttl at the given time.
func (c *FolderContents) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CachedAt) > ttl
}

// Children returns the merged child list, folders first, in listing order.
func (c *FolderContents) Children() []Node {
	nodes := make([]Node, 0, len(c.FolderChildren)+len(c.FileChildren))
	for _, f := range c.FolderChildren {
		nodes = append(nodes, f)
	}
	for _, f := range c.FileChildren {
		nodes = append(nodes, f)
	}
	return nodes
}

// FileByID finds a file child by id.
func (c *FolderContents) FileByID(fileID int64) (FileInfo, bool) {
	for _, f := range c.FileChildren {
		if f.FileID == fileID {
			return f, true
		}
	}
	return FileInfo{}, false
}

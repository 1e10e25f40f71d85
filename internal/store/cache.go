package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MetadataCache persists per-folder child listings, keyed by folder id.
// It is a dumb key-value layer: TTL interpretation belongs to the Store.
// Concurrent Set calls for the same folder race read-modify-write; the
// last writer wins, which is safe because entries are whole snapshots.
type MetadataCache struct {
	persist Persistence
}

// NewMetadataCache creates a cache over the given persistence facility.
func NewMetadataCache(persist Persistence) *MetadataCache {
	return &MetadataCache{persist: persist}
}

// Get loads the cached contents for a folder. The second return is false
// if the folder was never stored.
func (c *MetadataCache) Get(folderID int64) (*FolderContents, bool, error) {
	m, err := c.persist.Load()
	if err != nil {
		return nil, false, err
	}
	raw, ok := m[cacheKey(folderID)]
	if !ok {
		return nil, false, nil
	}
	var contents FolderContents
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, false, fmt.Errorf("decoding cached folder %d: %w", folderID, err)
	}
	return &contents, true, nil
}

// Set upserts the full contents for its folder, replacing any prior entry.
func (c *MetadataCache) Set(contents *FolderContents) error {
	m, err := c.persist.Load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(contents)
	if err != nil {
		return fmt.Errorf("encoding folder %d: %w", contents.FolderID, err)
	}
	m[cacheKey(contents.FolderID)] = raw
	return c.persist.Save(m)
}

func cacheKey(folderID int64) string {
	return strconv.FormatInt(folderID, 10)
}

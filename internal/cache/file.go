package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/fileutil"
)

/*
FileCache is the persistent page cache.

  - The whole mapping lives in memory and is written to a single JSON file.
  - Entries are never evicted and have no freshness; only Clear removes them.
  - A missing or unreadable file yields an empty cache. The failure is
    recorded on the metadata sink and never returned to the caller.
  - Save replaces the file atomically (temp file + rename).

FileCache is safe for concurrent use.
*/
type FileCache struct {
	mu           sync.RWMutex
	path         string
	data         map[string]Entry
	metadataSink metadata.MetadataSink
}

// Load reads the cache file at path. It always returns a usable cache.
func Load(path string, metadataSink metadata.MetadataSink) *FileCache {
	c := &FileCache{
		path:         path,
		data:         make(map[string]Entry),
		metadataSink: metadataSink,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.recordError("FileCache.Load", &CacheError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseReadFailure,
			})
		}
		return c
	}

	var decoded map[string]Entry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.recordError("FileCache.Load", &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDecodeFailure,
		})
		return c
	}
	if decoded != nil {
		c.data = decoded
	}
	return c
}

func (c *FileCache) Path() string {
	return c.path
}

func (c *FileCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	return entry, ok
}

func (c *FileCache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry
}

// Save serializes the full mapping and overwrites the cache file.
func (c *FileCache) Save() failure.ClassifiedError {
	c.mu.RLock()
	encoded, err := json.Marshal(c.data)
	size := len(c.data)
	c.mu.RUnlock()

	if err != nil {
		cacheErr := &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
		c.recordError("FileCache.Save", cacheErr)
		return cacheErr
	}

	if writeErr := fileutil.WriteFileAtomic(c.path, encoded, 0o644); writeErr != nil {
		cacheErr := &CacheError{
			Message:   writeErr.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
		}
		c.recordError("FileCache.Save", cacheErr)
		return cacheErr
	}

	c.metadataSink.RecordArtifact(
		metadata.ArtifactCacheFile,
		c.path,
		[]metadata.Attribute{
			metadata.NewIntAttr(metadata.AttrRows, size),
		},
	)
	return nil
}

// Flush is an alias of Save kept for callers that think in terms of buffers.
func (c *FileCache) Flush() failure.ClassifiedError {
	return c.Save()
}

func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Keys returns every key in lexical order.
func (c *FileCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry. The file is untouched until the next Save.
func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]Entry)
}

func (c *FileCache) recordError(action string, err *CacheError) {
	c.metadataSink.RecordError(
		time.Now(),
		"cache",
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrPath, c.path),
		},
	)
}

func (c *FileCache) String() string {
	return fmt.Sprintf("FileCache(%s, %d entries)", c.path, c.Len())
}

package compiler

import (
	"sync"
	"time"
)

// Entry is one cached compilation, keyed by absolute source path.
type Entry struct {
	// Hash is the xxhash64 digest of the source text the artifact was
	// built from.
	Hash uint64
	// OutputDir is the directory the artifact was written to.
	OutputDir string
	// ArtifactPath is the resolved executable path. Empty for interpreted
	// languages (which never reach the cache).
	ArtifactPath string
	// CompileCommand is the resolved command line the artifact was built
	// with. A changed command invalidates the entry even when the source
	// is unchanged.
	CompileCommand string
	// CreatedAt records when the entry was stored.
	CreatedAt time.Time
}

// Cache stores compilation entries. The in-memory implementation below is
// the default; a persistent implementation can be swapped in behind the same
// contract without touching the compile algorithm.
type Cache interface {
	Get(sourcePath string) (Entry, bool)
	Set(sourcePath string, e Entry)
	Delete(sourcePath string)
	Clear()
}

// MemoryCache is a mutex-guarded in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(sourcePath string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sourcePath]
	return e, ok
}

func (c *MemoryCache) Set(sourcePath string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sourcePath] = e
}

func (c *MemoryCache) Delete(sourcePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sourcePath)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

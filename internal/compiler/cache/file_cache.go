package cache

import (
	"sync"

	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// CachedFile represents a parsed source file with metadata
type CachedFile struct {
	File *syntax.File
	Hash string
	Path string
}

// FileCache keeps parsed files for the lifetime of one transform session,
// so a file imported from several places is read and parsed once.
type FileCache struct {
	entries map[string]*CachedFile
	hits    int
	misses  int
	mu      sync.RWMutex
}

// NewFileCache creates an empty cache
func NewFileCache() *FileCache {
	return &FileCache{
		entries: make(map[string]*CachedFile),
	}
}

// Get retrieves a cached file by absolute path
func (fc *FileCache) Get(path string) (*CachedFile, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entry, exists := fc.entries[path]
	if exists {
		fc.hits++
	} else {
		fc.misses++
	}
	return entry, exists
}

// Set stores a parsed file in the cache
func (fc *FileCache) Set(path string, file *syntax.File, hash string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.entries[path] = &CachedFile{
		File:     file,
		Hash:     hash,
		Path:     path,
	}
}

// Size returns the number of cached entries
func (fc *FileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.entries)
}

// Paths returns the cached paths. Order is unspecified.
func (fc *FileCache) Paths() []string {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	paths := make([]string, 0, len(fc.entries))
	for p := range fc.entries {
		paths = append(paths, p)
	}
	return paths
}

// Stats returns hit and miss counters
func (fc *FileCache) Stats() (hits, misses int) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return fc.hits, fc.misses
}

package resolve

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/cache"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// Loader reads and parses files for one transform session. Each path is
// parsed at most once; the set of loaded files becomes the session's
// dependency list.
type Loader struct {
	resolver *Resolver
	files    *cache.FileCache
	logger   *zap.Logger
}

// NewLoader creates a session loader. A nil logger disables logging.
func NewLoader(resolver *Resolver, logger *zap.Logger) *Loader {
	if resolver == nil {
		resolver = NewResolver(Config{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		resolver: resolver,
		files:    cache.NewFileCache(),
		logger:   logger,
	}
}

// Load returns the parsed file at path, reading it on first use.
func (l *Loader) Load(ctx context.Context, path string) (*syntax.File, error) {
	path = abs(path)
	if cached, ok := l.files.Get(path); ok {
		l.logger.Debug("file cache hit", zap.String("path", path))
		return cached.File, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return l.Add(ctx, path, src)
}

// Add parses src as the contents of path and caches it. The transformer
// uses it for the top-level file, whose text may not be on disk.
func (l *Loader) Add(ctx context.Context, path string, src []byte) (*syntax.File, error) {
	path = abs(path)
	file, err := syntax.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	l.files.Set(path, file, cache.HashContent(src))
	return file, nil
}

// Import resolves specifier relative to from and loads the target. Failures
// are reported as ok=false; unresolvable imports are not errors.
func (l *Loader) Import(ctx context.Context, from *syntax.File, specifier string) (*syntax.File, bool) {
	path, ok := l.resolver.Resolve(from.Path, specifier)
	if !ok {
		l.logger.Debug("skipping unresolved import",
			zap.String("from", from.Path),
			zap.String("specifier", specifier))
		return nil, false
	}
	file, err := l.Load(ctx, path)
	if err != nil {
		l.logger.Debug("skipping unreadable import",
			zap.String("from", from.Path),
			zap.String("path", path),
			zap.Error(err))
		return nil, false
	}
	return file, true
}

// Files returns every path loaded in this session, sorted.
func (l *Loader) Files() []string {
	paths := l.files.Paths()
	sort.Strings(paths)
	return paths
}

// Hash returns the content hash recorded for a loaded path.
func (l *Loader) Hash(path string) (string, bool) {
	cached, ok := l.files.Get(abs(path))
	if !ok {
		return "", false
	}
	return cached.Hash, true
}

// Stats reports cache hits and misses for logging.
func (l *Loader) Stats() (hits, misses int) {
	return l.files.Stats()
}

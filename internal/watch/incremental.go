package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/cache"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// Incremental reruns the transform for changed files and every file that
// read them on the previous run.
type Incremental struct {
	coord   *transform.Coordinator
	root    string
	include []string
	exclude []string
	logger  *zap.Logger

	// Handle receives each successful result, e.g. to write it out.
	Handle func(*transform.Result) error
	// OnRemove is called for each deleted source file.
	OnRemove func(path string) error

	mu     sync.Mutex
	hashes map[string]string // content hash of every file read so far
}

// NewIncremental creates a rebuilder over the files below root matching the globs.
func NewIncremental(coord *transform.Coordinator, root string, include, exclude []string, logger *zap.Logger) *Incremental {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Incremental{
		coord:   coord,
		root:    root,
		include: include,
		exclude: exclude,
		logger:  logger,
		hashes:  make(map[string]string),
	}
}

// Build transforms every selected file and seeds the dependency graph.
func (ic *Incremental) Build(ctx context.Context) (*transform.Report, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	files, err := transform.Discover(ic.root, ic.include, ic.exclude)
	if err != nil {
		return nil, err
	}
	ic.remember(files)
	report, err := ic.coord.Run(ctx, files, ic.Handle)
	if err != nil {
		return nil, err
	}
	ic.rememberDeps(report)
	return report, nil
}

// Rebuild transforms the files affected by one batch of changes.
func (ic *Incremental) Rebuild(ctx context.Context, changes Changes) (*transform.Report, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	// Editors often rewrite a file without changing it.
	var touched []string
	for _, path := range changes.Changed {
		if ic.modified(path) {
			touched = append(touched, path)
		}
	}
	// Dependents must be collected before removed files leave the graph.
	touched = append(touched, changes.Removed...)
	affected := ic.coord.Affected(touched)

	for _, path := range changes.Removed {
		ic.coord.Forget(path)
		delete(ic.hashes, path)
		if ic.OnRemove != nil {
			if err := ic.OnRemove(path); err != nil {
				return nil, err
			}
		}
	}

	var paths []string
	for _, path := range affected {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// A changed type file outside the globs is only re-read through
		// its dependents.
		if !ic.Selected(path) {
			continue
		}
		paths = append(paths, path)
	}

	ic.logger.Debug("rebuilding",
		zap.Int("changed", len(changes.Changed)),
		zap.Int("removed", len(changes.Removed)),
		zap.Int("affected", len(paths)))
	report, err := ic.coord.Run(ctx, paths, ic.Handle)
	if err != nil {
		return nil, err
	}
	ic.rememberDeps(report)
	return report, nil
}

// modified records the current hash of path and reports whether it differs
// from the last one seen. Unreadable and unseen files count as modified.
func (ic *Incremental) modified(path string) bool {
	hash, err := cache.HashFile(path)
	if err != nil {
		return true
	}
	prev, seen := ic.hashes[path]
	ic.hashes[path] = hash
	return !seen || prev != hash
}

func (ic *Incremental) remember(paths []string) {
	for _, path := range paths {
		if hash, err := cache.HashFile(path); err == nil {
			ic.hashes[path] = hash
		}
	}
}

// rememberDeps hashes the files the transforms read, so later writes to
// them can be compared.
func (ic *Incremental) rememberDeps(report *transform.Report) {
	for _, res := range report.Results {
		var unseen []string
		for _, dep := range res.Deps {
			if _, ok := ic.hashes[dep]; !ok {
				unseen = append(unseen, dep)
			}
		}
		ic.remember(unseen)
	}
}

// Selected reports whether path is matched by the include and exclude globs.
func (ic *Incremental) Selected(path string) bool {
	rel, ok := relTo(ic.root, path)
	return ok && transform.Matches(rel, ic.include, ic.exclude)
}

// Tracks reports whether a previously transformed file read path.
func (ic *Incremental) Tracks(path string) bool {
	return len(ic.coord.Graph().GetDependents(path)) > 0
}

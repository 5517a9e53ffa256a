// Package watch regenerates fragments when source files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 100 * time.Millisecond

// Changes is one debounced batch of file events. Paths are absolute and sorted.
type Changes struct {
	Changed []string
	Removed []string
}

// Empty reports whether the batch holds no paths
func (c Changes) Empty() bool {
	return len(c.Changed) == 0 && len(c.Removed) == 0
}

// Config configures a FileWatcher
type Config struct {
	Root     string
	Include  []string
	Exclude  []string
	Debounce time.Duration
	Logger   *zap.Logger

	// Track reports extra files to watch outside the globs, such as type
	// files imported from elsewhere.
	Track func(path string) bool
}

// FileWatcher monitors the source tree and reports debounced changes of
// files selected by the include and exclude globs.
type FileWatcher struct {
	cfg       Config
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher. onChange runs on the debouncer's
// goroutine, one batch at a time.
func NewFileWatcher(cfg Config, onChange func(Changes)) (*FileWatcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	cfg.Root = root
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		cfg:       cfg,
		watcher:   watcher,
		debouncer: NewDebouncer(cfg.Debounce),
		logger:    cfg.Logger,
		stopChan:  make(chan struct{}),
	}
	fw.debouncer.SetCallback(onChange)
	return fw, nil
}

// Start adds every non-excluded directory under the root and begins
// watching in the background.
func (fw *FileWatcher) Start() error {
	if err := fw.addTree(fw.cfg.Root); err != nil {
		return err
	}
	fw.wg.Add(1)
	go fw.watch()
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (fw *FileWatcher) Run(ctx context.Context) error {
	if err := fw.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return fw.Stop()
}

// Stop stops the watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	rel, ok := fw.rel(event.Name)
	if !ok {
		return
	}

	// fsnotify does not recurse, so new directories are added as they appear.
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := fw.addTree(event.Name); err != nil {
			fw.logger.Warn("failed to watch new directory", zap.String("dir", rel), zap.Error(err))
		}
		return
	}

	if !fw.selected(rel, event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.logger.Debug("file changed", zap.String("file", rel))
		fw.debouncer.Add(event.Name, false)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.logger.Debug("file removed", zap.String("file", rel))
		fw.debouncer.Add(event.Name, true)
	}
}

func (fw *FileWatcher) selected(rel, path string) bool {
	if transform.Matches(rel, fw.cfg.Include, fw.cfg.Exclude) {
		return true
	}
	return fw.cfg.Track != nil && fw.cfg.Track(path)
}

func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := fw.rel(path); ok && rel != "." && fw.excludedDir(rel) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", path))
		return nil
	})
}

func (fw *FileWatcher) excludedDir(rel string) bool {
	probe := rel + "/x"
	for _, p := range fw.cfg.Exclude {
		if transform.Matches(probe, []string{p}, nil) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) rel(path string) (string, bool) {
	return relTo(fw.cfg.Root, path)
}

// relTo returns path relative to root with forward slashes, or false when
// path lies outside root.
func relTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Debouncer collects file events and reports them once no new event has
// arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]bool // path -> removed
	mutex    sync.Mutex
	running  sync.Mutex
	callback func(Changes)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]bool),
	}
}

// Add records an event. The last event for a path wins.
func (d *Debouncer) Add(file string, removed bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = removed

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}
	var changes Changes
	for file, removed := range d.files {
		if removed {
			changes.Removed = append(changes.Removed, file)
		} else {
			changes.Changed = append(changes.Changed, file)
		}
	}
	d.files = make(map[string]bool)
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(changes.Changed)
	sort.Strings(changes.Removed)
	if callback != nil {
		d.running.Lock()
		defer d.running.Unlock()
		callback(changes)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func(Changes)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending flush
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}

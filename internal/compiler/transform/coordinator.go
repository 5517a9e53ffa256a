package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/propfrag/propfrag/internal/compiler/cache"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/sourcemap"
)

// Report summarizes one batch.
type Report struct {
	Results  []*Result
	Errors   errors.ErrorList
	Duration time.Duration
}

// Changed returns the results whose output differs from their input.
func (r *Report) Changed() []*Result {
	var out []*Result
	for _, res := range r.Results {
		if res.Changed {
			out = append(out, res)
		}
	}
	return out
}

// Coordinator runs independent file transforms concurrently and remembers
// which files each transform read.
type Coordinator struct {
	transformer *Transformer
	jobs        int
	logger      *zap.Logger

	graph *cache.DependencyGraph
	maps  *sourcemap.Registry
}

// NewCoordinator creates a coordinator running at most jobs transforms at
// once. jobs <= 0 means one per file.
func NewCoordinator(t *Transformer, jobs int) *Coordinator {
	return &Coordinator{
		transformer: t,
		jobs:        jobs,
		logger:      t.Options().Logger,
		graph:       cache.NewDependencyGraph(),
		maps:        sourcemap.NewRegistry(),
	}
}

// Graph returns the dependency graph built by previous runs.
func (c *Coordinator) Graph() *cache.DependencyGraph {
	return c.graph
}

// SourceMaps returns the source maps of changed files from previous runs.
func (c *Coordinator) SourceMaps() *sourcemap.Registry {
	return c.maps
}

// Run transforms paths. Compiler errors are collected per file and do not
// stop the batch; I/O failures, cancellation and errors returned by handle do.
// handle, when non-nil, is called once per successful result and may be
// called concurrently.
func (c *Coordinator) Run(ctx context.Context, paths []string, handle func(*Result) error) (*Report, error) {
	start := time.Now()
	report := &Report{}
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	if c.jobs > 0 {
		eg.SetLimit(c.jobs)
	}

	for _, path := range paths {
		path := path
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := c.transformPath(ctx, path)
			if err != nil {
				ce, ok := errors.As(err)
				if !ok {
					return err
				}
				mu.Lock()
				report.Errors = append(report.Errors, ce)
				mu.Unlock()
				return nil
			}

			c.graph.SetDependencies(res.Path, res.Deps)
			if res.SourceMap != nil {
				c.maps.Register(res.SourceMap)
			}
			if handle != nil {
				if err := handle(res); err != nil {
					return err
				}
			}
			mu.Lock()
			report.Results = append(report.Results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Path < report.Results[j].Path })
	sort.SliceStable(report.Errors, func(i, j int) bool { return report.Errors[i].File < report.Errors[j].File })
	report.Duration = time.Since(start)

	c.logger.Debug("batch finished",
		zap.Int("files", len(paths)),
		zap.Int("changed", len(report.Changed())),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (c *Coordinator) transformPath(ctx context.Context, path string) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.transformer.TransformFile(ctx, abs, src)
}

// Affected returns the changed files plus every previously transformed file
// that read one of them, deduplicated and sorted.
func (c *Coordinator) Affected(changed []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range changed {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		add(p)
		for _, dep := range c.graph.GetTransitiveDependents(p) {
			add(dep)
		}
	}
	sort.Strings(out)
	return out
}

// Forget drops a deleted file from the dependency graph.
func (c *Coordinator) Forget(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.graph.RemoveFile(path)
}

// Package resolve maps import specifiers to files on disk and loads them
// through a per-session parsed-file cache.
//
// Bare specifiers follow TypeScript's path-mapping rules:
//  1. Exact alias keys are checked first
//  2. Wildcard keys are matched by longest prefix (ties broken by longest suffix)
//  3. The wildcard text is substituted into each target in turn
//  4. Unmatched specifiers are looked up in node_modules, walking upwards
package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are probed, in order, when a specifier has no extension.
var DefaultExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".d.ts"}

// Config holds module resolution settings.
type Config struct {
	BaseDir     string              // directory alias targets are resolved against
	Paths       map[string][]string // alias pattern → target paths (e.g. "@app/*" → ["src/*"])
	Extensions  []string
	NodeModules bool
}

// Resolver resolves import specifiers to absolute file paths.
type Resolver struct {
	baseDir     string
	aliases     map[string][]string
	extensions  []string
	nodeModules bool
}

// NewResolver creates a resolver. A zero Config resolves relative imports only.
func NewResolver(cfg Config) *Resolver {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	base := cfg.BaseDir
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	return &Resolver{
		baseDir:     base,
		aliases:     cfg.Paths,
		extensions:  exts,
		nodeModules: cfg.NodeModules,
	}
}

// Resolve returns the file imported by specifier from fromFile.
func (r *Resolver) Resolve(fromFile, specifier string) (string, bool) {
	if specifier == "" {
		return "", false
	}

	if strings.HasPrefix(specifier, ".") || filepath.IsAbs(specifier) {
		target := specifier
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))
		}
		return r.probe(target)
	}

	for _, target := range r.matchAlias(specifier) {
		if p, ok := r.probe(target); ok {
			return p, true
		}
	}

	if r.nodeModules {
		return r.probeNodeModules(filepath.Dir(fromFile), specifier)
	}
	return "", false
}

// matchAlias returns candidate paths for specifier from the alias table.
func (r *Resolver) matchAlias(specifier string) []string {
	if len(r.aliases) == 0 {
		return nil
	}

	// Exact matches (no wildcard)
	if targets, ok := r.aliases[specifier]; ok && !strings.Contains(specifier, "*") {
		return r.joinTargets(targets, "")
	}

	longestPrefix, longestSuffix := -1, -1
	var bestTargets []string
	var matched string

	for key, targets := range r.aliases {
		star := strings.IndexByte(key, '*')
		if star < 0 {
			continue
		}
		prefix, suffix := key[:star], key[star+1:]
		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) ||
			len(specifier) < len(prefix)+len(suffix) {
			continue
		}
		if len(prefix) > longestPrefix || (len(prefix) == longestPrefix && len(suffix) > longestSuffix) {
			longestPrefix, longestSuffix = len(prefix), len(suffix)
			bestTargets = targets
			matched = specifier[len(prefix) : len(specifier)-len(suffix)]
		}
	}

	if longestPrefix < 0 {
		return nil
	}
	return r.joinTargets(bestTargets, matched)
}

func (r *Resolver) joinTargets(targets []string, wildcard string) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimPrefix(t, "./")
		t = strings.Replace(t, "*", wildcard, 1)
		out = append(out, filepath.Join(r.baseDir, filepath.FromSlash(t)))
	}
	return out
}

func (r *Resolver) probeNodeModules(dir, specifier string) (string, bool) {
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(specifier))
		if p, ok := r.probe(candidate); ok {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// probe tries the path as is, then with each extension, then as a directory index.
func (r *Resolver) probe(target string) (string, bool) {
	if isFile(target) {
		return abs(target), true
	}
	for _, ext := range r.extensions {
		if isFile(target + ext) {
			return abs(target + ext), true
		}
	}
	for _, ext := range r.extensions {
		index := filepath.Join(target, "index"+ext)
		if isFile(index) {
			return abs(index), true
		}
	}
	return "", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func abs(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

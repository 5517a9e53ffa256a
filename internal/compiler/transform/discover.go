package transform

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
)

// Discover walks root and returns the files matching any include pattern and
// no exclude pattern. Patterns are doublestar globs relative to root, e.g.
// "src/**/*.{ts,tsx}".
func Discover(root string, include, exclude []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && matchAny(exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Matches reports whether a root-relative path is selected by the patterns.
func Matches(rel string, include, exclude []string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(include, rel) && !matchAny(exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

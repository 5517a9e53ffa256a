// Package sourcemap records where each generated fragment came from so
// diagnostics and editors can point back at the original marker call.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Suffix is appended to an output file name to form its source map name.
const Suffix = ".map.json"

// SourceMap maps replaced regions of a generated file back to the source.
type SourceMap struct {
	SourceFile    string     `json:"sourceFile"`
	GeneratedFile string     `json:"generatedFile,omitempty"`
	Mappings      []*Mapping `json:"mappings"`
}

// Mapping is one edit of the source. Lines and columns are 1-indexed; the
// spans count the line breaks inside the original and the generated text.
// Edits without a Name (removed imports) only shift the lines after them.
type Mapping struct {
	SourceLine      int    `json:"sourceLine"`
	SourceColumn    int    `json:"sourceColumn"`
	SourceSpan      int    `json:"sourceSpan"`
	GeneratedLine   int    `json:"generatedLine"`
	GeneratedColumn int    `json:"generatedColumn"`
	GeneratedSpan   int    `json:"generatedSpan"`
	Name            string `json:"name,omitempty"`
}

// New creates an empty source map.
func New(sourceFile, generatedFile string) *SourceMap {
	return &SourceMap{
		SourceFile:    sourceFile,
		GeneratedFile: generatedFile,
		Mappings:      make([]*Mapping, 0),
	}
}

// Add appends a mapping and keeps mappings ordered by generated position.
func (sm *SourceMap) Add(m *Mapping) {
	sm.Mappings = append(sm.Mappings, m)
	sort.SliceStable(sm.Mappings, func(i, j int) bool {
		a, b := sm.Mappings[i], sm.Mappings[j]
		if a.GeneratedLine != b.GeneratedLine {
			return a.GeneratedLine < b.GeneratedLine
		}
		return a.GeneratedColumn < b.GeneratedColumn
	})
}

// OriginalPosition returns the source position of generatedLine. Lines
// inside a generated fragment map to the marker call they replaced.
func (sm *SourceMap) OriginalPosition(generatedLine int) (line, column int) {
	delta := 0
	for _, m := range sm.Mappings {
		if generatedLine < m.GeneratedLine {
			break
		}
		if m.Name != "" && generatedLine <= m.GeneratedLine+m.GeneratedSpan {
			return m.SourceLine, m.SourceColumn
		}
		delta += m.GeneratedSpan - m.SourceSpan
	}
	return generatedLine - delta, 1
}

// Save writes the map as indented JSON.
func (sm *SourceMap) Save(path string) error {
	data, err := json.MarshalIndent(sm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal source map: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write source map: %w", err)
	}
	return nil
}

// Load reads a map written by Save.
func Load(path string) (*SourceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("failed to parse source map %s: %w", path, err)
	}
	return &sm, nil
}

// Registry holds the maps of one batch, keyed by source file.
type Registry struct {
	maps  map[string]*SourceMap
	mutex sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{maps: make(map[string]*SourceMap)}
}

// Register stores sm under its source file, replacing any earlier map.
func (r *Registry) Register(sm *SourceMap) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.maps[sm.SourceFile] = sm
}

// Get returns the map for a source file.
func (r *Registry) Get(sourceFile string) (*SourceMap, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	sm, ok := r.maps[sourceFile]
	return sm, ok
}

// LoadFromDirectory registers every *.map.json file in dir.
func (r *Registry) LoadFromDirectory(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*"+Suffix))
	if err != nil {
		return fmt.Errorf("failed to find source maps: %w", err)
	}
	for _, file := range files {
		sm, err := Load(file)
		if err != nil {
			return err
		}
		r.Register(sm)
	}
	return nil
}

// TranslateLocation maps a line of a generated file back to its source.
func (r *Registry) TranslateLocation(generatedFile string, generatedLine int) (string, int, int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, sm := range r.maps {
		if sm.GeneratedFile == generatedFile {
			line, col := sm.OriginalPosition(generatedLine)
			return sm.SourceFile, line, col, nil
		}
	}
	return "", 0, 0, fmt.Errorf("no source map for generated file %s", generatedFile)
}

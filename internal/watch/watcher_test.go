package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDebouncer_Add(t *testing.T) {
	got := make(chan Changes, 1)

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(c Changes) { got <- c })

	debouncer.Add("/src/b.tsx", false)
	debouncer.Add("/src/a.tsx", false)
	debouncer.Add("/src/c.tsx", false)
	debouncer.Add("/src/c.tsx", true) // last event wins
	debouncer.Add("/src/a.tsx", false)

	select {
	case c := <-got:
		if len(c.Changed) != 2 || c.Changed[0] != "/src/a.tsx" || c.Changed[1] != "/src/b.tsx" {
			t.Errorf("unexpected changed files %v", c.Changed)
		}
		if len(c.Removed) != 1 || c.Removed[0] != "/src/c.tsx" {
			t.Errorf("unexpected removed files %v", c.Removed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected callback to be called")
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var batches []Changes

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(c Changes) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, c)
	})

	debouncer.Add("file1.tsx", false)
	time.Sleep(150 * time.Millisecond)
	debouncer.Add("file2.tsx", false)
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[1].Changed[0] != "file2.tsx" {
		t.Errorf("expected second batch to hold file2.tsx, got %v", batches[1].Changed)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	called := make(chan struct{}, 1)

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(Changes) { called <- struct{}{} })
	debouncer.Add("file.tsx", false)
	debouncer.Stop()
	debouncer.Add("other.tsx", false)

	select {
	case <-called:
		t.Error("expected no callback after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestChanges_Empty(t *testing.T) {
	if !(Changes{}).Empty() {
		t.Error("expected zero Changes to be empty")
	}
	if (Changes{Removed: []string{"a.tsx"}}).Empty() {
		t.Error("expected Changes with a removal to be non-empty")
	}
}

func TestRelTo(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "project")
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{filepath.Join(root, "src", "Article.tsx"), "src/Article.tsx", true},
		{root, ".", true},
		{filepath.Join(root, "..", "other", "x.ts"), "", false},
		{filepath.Join(root, "..foo", "x.ts"), "..foo/x.ts", true},
	}
	for _, tt := range tests {
		got, ok := relTo(root, tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("relTo(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFileWatcher_DetectsChanges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(filepath.Join(root, "node_modules", "lib"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	article := filepath.Join(src, "Article.tsx")
	if err := os.WriteFile(article, []byte("export {};\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got := make(chan Changes, 4)
	fw, err := NewFileWatcher(Config{
		Root:     root,
		Include:  []string{"src/**/*.tsx"},
		Exclude:  []string{"**/node_modules/**"},
		Debounce: 50 * time.Millisecond,
	}, func(c Changes) { got <- c })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer fw.Stop()

	// Ignored: not matched by the globs.
	if err := os.WriteFile(filepath.Join(src, "notes.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(article, []byte("export const x = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if len(c.Changed) != 1 || c.Changed[0] != article {
			t.Errorf("expected %s to change, got %+v", article, c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected change to be detected")
	}

	// Files in directories created after Start are picked up too.
	nested := filepath.Join(src, "nested")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	story := filepath.Join(nested, "Story.tsx")
	if err := os.WriteFile(story, []byte("export {};\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if len(c.Changed) != 1 || c.Changed[0] != story {
			t.Errorf("expected %s to change, got %+v", story, c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected change in new directory to be detected")
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

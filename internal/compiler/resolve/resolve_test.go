package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestResolver_Relative(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/Article.tsx":        "",
		"src/types.ts":           "",
		"src/models/index.ts":    "",
		"src/legacy/Comment.js":  "",
		"src/explicit/Thing.tsx": "",
	})
	from := filepath.Join(root, "src", "Article.tsx")
	r := NewResolver(Config{})

	tests := []struct {
		specifier string
		want      string
	}{
		{"./types", "src/types.ts"},
		{"./models", "src/models/index.ts"},
		{"./legacy/Comment", "src/legacy/Comment.js"},
		{"./explicit/Thing.tsx", "src/explicit/Thing.tsx"},
		{"../src/types", "src/types.ts"},
	}
	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			got, ok := r.Resolve(from, tt.specifier)
			require.True(t, ok)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
		})
	}

	_, ok := r.Resolve(from, "./missing")
	assert.False(t, ok)

	_, ok = r.Resolve(from, "react")
	assert.False(t, ok, "bare specifiers need aliases or node_modules")
}

func TestResolver_PathAliases(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app/types.ts":      "",
		"src/lib/logger.ts":     "",
		"src/config/index.ts":   "",
		"src/lib/special/x.tsx": "",
	})
	r := NewResolver(Config{
		BaseDir: root,
		Paths: map[string][]string{
			"@app/*":         {"src/app/*"},
			"@lib/*":         {"./src/lib/*"},
			"@lib/special/*": {"src/lib/special/*"},
			"@config":        {"src/config"},
		},
	})
	from := filepath.Join(root, "src", "Article.tsx")

	got, ok := r.Resolve(from, "@app/types")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "app", "types.ts"), got)

	got, ok = r.Resolve(from, "@lib/logger")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "lib", "logger.ts"), got)

	got, ok = r.Resolve(from, "@lib/special/x")
	require.True(t, ok, "longest prefix wins")
	assert.Equal(t, filepath.Join(root, "src", "lib", "special", "x.tsx"), got)

	got, ok = r.Resolve(from, "@config")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "config", "index.ts"), got)
}

func TestResolver_NodeModules(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/shared-types/index.d.ts": "",
		"packages/web/src/Article.tsx":         "",
	})
	from := filepath.Join(root, "packages", "web", "src", "Article.tsx")

	got, ok := NewResolver(Config{NodeModules: true}).Resolve(from, "shared-types")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "node_modules", "shared-types", "index.d.ts"), got)

	_, ok = NewResolver(Config{}).Resolve(from, "shared-types")
	assert.False(t, ok)
}

func TestLoader_ParsesOncePerSession(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"types.ts": "export type A = { a: string };\n",
	})
	loader := NewLoader(nil, nil)
	ctx := context.Background()

	first, err := loader.Load(ctx, filepath.Join(root, "types.ts"))
	require.NoError(t, err)
	second, err := loader.Load(ctx, filepath.Join(root, "types.ts"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	hits, misses := loader.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, []string{filepath.Join(root, "types.ts")}, loader.Files())
}

func TestLoader_Import(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"types.ts": "export type A = { a: string };\n",
	})
	loader := NewLoader(NewResolver(Config{}), nil)
	ctx := context.Background()

	main, err := loader.Add(ctx, filepath.Join(root, "Main.tsx"), []byte("import type { A } from './types';\n"))
	require.NoError(t, err)

	imported, ok := loader.Import(ctx, main, "./types")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "types.ts"), imported.Path)

	_, ok = loader.Import(ctx, main, "./nope")
	assert.False(t, ok)

	hash, ok := loader.Hash(filepath.Join(root, "types.ts"))
	require.True(t, ok)
	assert.Len(t, hash, 64)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	_, err := NewLoader(nil, nil).Load(context.Background(), filepath.Join(t.TempDir(), "missing.ts"))
	assert.Error(t, err)
}

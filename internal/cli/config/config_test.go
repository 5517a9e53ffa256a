package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/propfrag/propfrag/internal/compiler/codegen"
	"github.com/propfrag/propfrag/internal/compiler/errors"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Preset != "relay" {
		t.Errorf("expected default preset 'relay', got %s", cfg.Preset)
	}
	if cfg.Schema != "schema.graphql" {
		t.Errorf("expected default schema 'schema.graphql', got %s", cfg.Schema)
	}
	if cfg.Markers.Props != "generateFragmentFromProps" {
		t.Errorf("expected default props marker, got %s", cfg.Markers.Props)
	}
	if cfg.Jobs != 4 {
		t.Errorf("expected default jobs 4, got %d", cfg.Jobs)
	}
	if cfg.Generation.ArrowWrap != nil {
		t.Errorf("expected arrow_wrap unset, got %v", *cfg.Generation.ArrowWrap)
	}
	if cfg.File != "" {
		t.Errorf("expected no config file, got %s", cfg.File)
	}
	want, _ := filepath.Abs(tmpDir)
	if cfg.Root != want {
		t.Errorf("expected root %s, got %s", want, cfg.Root)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
schema: api/schema.graphql
preset: apollo
markers:
  props: fragmentFromProps
  props_for: fragmentFromPropsFor
generation:
  arrow_wrap: true
  template_tag: graphql
resolve:
  paths:
    "@app/*": ["src/*"]
include:
  - "app/**/*.tsx"
jobs: 8
`
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(tmpDir, "app", "components")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Preset != "apollo" {
		t.Errorf("expected preset 'apollo', got %s", cfg.Preset)
	}
	if cfg.Markers.PropsFor != "fragmentFromPropsFor" {
		t.Errorf("expected props_for marker override, got %s", cfg.Markers.PropsFor)
	}
	if cfg.Generation.ArrowWrap == nil || !*cfg.Generation.ArrowWrap {
		t.Error("expected arrow_wrap true")
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "app/**/*.tsx" {
		t.Errorf("expected include override, got %v", cfg.Include)
	}
	if got := cfg.Resolve.Paths["@app/*"]; len(got) != 1 || got[0] != "src/*" {
		t.Errorf("expected path alias, got %v", cfg.Resolve.Paths)
	}
	if cfg.Jobs != 8 {
		t.Errorf("expected jobs 8, got %d", cfg.Jobs)
	}

	root, _ := filepath.Abs(tmpDir)
	if cfg.Root != root {
		t.Errorf("expected root %s, got %s", root, cfg.Root)
	}
	if cfg.Path(cfg.Schema) != filepath.Join(root, "api", "schema.graphql") {
		t.Errorf("unexpected schema path %s", cfg.Path(cfg.Schema))
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROPFRAG_PRESET", "apollo")
	t.Setenv("PROPFRAG_JOBS", "2")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Preset != "apollo" {
		t.Errorf("expected env preset 'apollo', got %s", cfg.Preset)
	}
	if cfg.Jobs != 2 {
		t.Errorf("expected env jobs 2, got %d", cfg.Jobs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown preset", func(c *Config) { c.Preset = "urql" }, true},
		{"unknown strategy", func(c *Config) { c.Generation.Strategy = "urql" }, true},
		{"unknown naming", func(c *Config) { c.Generation.Naming = "camel" }, true},
		{"component-key naming", func(c *Config) { c.Generation.Naming = codegen.NamingComponentKey }, false},
		{"empty marker", func(c *Config) { c.Markers.Props = "" }, true},
		{"same markers", func(c *Config) { c.Markers.PropsFor = c.Markers.Props }, true},
		{"bad extension", func(c *Config) { c.Resolve.Extensions = []string{"tsx"} }, true},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("preset: urql\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Error("expected validation error for unknown preset")
	}
}

func TestTransformOptions(t *testing.T) {
	tmpDir := t.TempDir()
	sdl := "type Query { article: Article }\ntype Article { title: String }\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "schema.graphql"), []byte(sdl), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	arrow := true
	cfg.Generation.ArrowWrap = &arrow
	cfg.Generation.TemplateTag = "graphql"

	opts, err := cfg.TransformOptions(nil, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if opts.Catalog == nil {
		t.Fatal("expected schema catalog to be loaded")
	}
	if _, ok := opts.Catalog.Lookup("Article"); !ok {
		t.Error("expected Article in catalog")
	}
	if !opts.ArrowWrap {
		t.Error("expected arrow wrap override")
	}
	if opts.TemplateTag != "graphql" {
		t.Errorf("expected template tag 'graphql', got %s", opts.TemplateTag)
	}
	if opts.Resolve.BaseDir != cfg.Root {
		t.Errorf("expected base dir %s, got %s", cfg.Root, opts.Resolve.BaseDir)
	}
}

func TestTransformOptionsMissingSchema(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.TransformOptions(nil, false); err != nil {
		t.Errorf("expected no error without schema, got %v", err)
	}

	_, err = cfg.TransformOptions(nil, true)
	ce, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected compiler error, got %v", err)
	}
	if ce.Code != errors.ErrSchemaLoad {
		t.Errorf("expected %s, got %s", errors.ErrSchemaLoad, ce.Code)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default()
	cfg.Preset = "apollo"
	cfg.Schema = "graphql/schema.graphql"

	if err := Write(filepath.Join(tmpDir, FileName), cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Preset != "apollo" || loaded.Schema != "graphql/schema.graphql" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := NewLogger(level, false)
		if err != nil {
			t.Errorf("NewLogger(%s) error = %v", level, err)
			continue
		}
		_ = logger.Sync()
	}
	if _, err := NewLogger("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

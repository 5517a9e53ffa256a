// Package config loads propfrag.yaml and turns it into transform options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/propfrag/propfrag/internal/compiler/codegen"
	"github.com/propfrag/propfrag/internal/compiler/components"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/normalize"
	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/resolve"
	"github.com/propfrag/propfrag/internal/compiler/schema"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "propfrag.yaml"

// EnvPrefix prefixes environment overrides, e.g. PROPFRAG_PRESET=apollo.
const EnvPrefix = "PROPFRAG"

// Config represents the propfrag configuration
type Config struct {
	Schema     string           `mapstructure:"schema" yaml:"schema"`
	Preset     string           `mapstructure:"preset" yaml:"preset"`
	Markers    MarkersConfig    `mapstructure:"markers" yaml:"markers"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Resolve    ResolveConfig    `mapstructure:"resolve" yaml:"resolve"`
	Include    []string         `mapstructure:"include" yaml:"include"`
	Exclude    []string         `mapstructure:"exclude" yaml:"exclude"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Jobs       int              `mapstructure:"jobs" yaml:"jobs"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`

	// Root is the directory holding the config file, or the working
	// directory when there is none. Relative paths resolve against it.
	Root string `mapstructure:"-" yaml:"-"`
	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// MarkersConfig names the sentinel functions
type MarkersConfig struct {
	Props    string `mapstructure:"props" yaml:"props"`
	PropsFor string `mapstructure:"props_for" yaml:"props_for"`
}

// GenerationConfig overrides preset output settings
type GenerationConfig struct {
	Strategy       string   `mapstructure:"strategy" yaml:"strategy,omitempty"`
	TemplateTag    string   `mapstructure:"template_tag" yaml:"template_tag,omitempty"`
	ArrowWrap      *bool    `mapstructure:"arrow_wrap" yaml:"arrow_wrap,omitempty"`
	Naming         string   `mapstructure:"naming" yaml:"naming,omitempty"`
	AliasWrapper   string   `mapstructure:"alias_wrapper" yaml:"alias_wrapper"`
	ComponentBases []string `mapstructure:"component_bases" yaml:"component_bases"`
	ValidateOutput bool     `mapstructure:"validate_output" yaml:"validate_output"`
}

// ResolveConfig configures import resolution
type ResolveConfig struct {
	Extensions  []string            `mapstructure:"extensions" yaml:"extensions"`
	Paths       map[string][]string `mapstructure:"paths" yaml:"paths,omitempty"`
	BaseDir     string              `mapstructure:"base_dir" yaml:"base_dir"`
	NodeModules bool                `mapstructure:"node_modules" yaml:"node_modules"`
}

// OutputConfig configures where generated files go
type OutputConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	SourceMaps bool   `mapstructure:"sourcemaps" yaml:"sourcemaps"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "schema.graphql")
	v.SetDefault("preset", "relay")
	v.SetDefault("markers.props", registry.DefaultMarkers.Props)
	v.SetDefault("markers.props_for", registry.DefaultMarkers.PropsFor)
	v.SetDefault("generation.strategy", "")
	v.SetDefault("generation.template_tag", "")
	v.SetDefault("generation.naming", "")
	v.SetDefault("generation.alias_wrapper", normalize.DefaultAliasWrapper)
	v.SetDefault("generation.component_bases", components.DefaultBases)
	v.SetDefault("generation.validate_output", true)
	v.SetDefault("resolve.extensions", resolve.DefaultExtensions)
	v.SetDefault("resolve.base_dir", ".")
	v.SetDefault("resolve.node_modules", true)
	v.SetDefault("include", []string{"src/**/*.{ts,tsx,js,jsx}"})
	v.SetDefault("exclude", []string{"**/node_modules/**", "**/*.d.ts"})
	v.SetDefault("output.dir", "generated")
	v.SetDefault("output.sourcemaps", false)
	v.SetDefault("jobs", 4)
	v.SetDefault("log.level", "info")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load finds propfrag.yaml by walking up from dir and reads it. Without a
// file the defaults apply and dir is the root.
func Load(dir string) (*Config, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return LoadFile("", dir)
	}
	return LoadFile(filepath.Join(root, FileName), root)
}

// LoadFile reads the given config file, or only defaults and environment
// when path is empty.
func LoadFile(path, root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		root = filepath.Dir(path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	cfg.Root = root
	cfg.File = path

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindRoot returns the nearest directory at or above dir holding propfrag.yaml.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found", FileName)
		}
		dir = parent
	}
}

// Validate checks values that cannot be expressed as defaults.
func Validate(cfg *Config) error {
	if _, err := codegen.LookupPreset(cfg.Preset); err != nil {
		return fmt.Errorf("preset: %w", err)
	}
	if cfg.Generation.Strategy != "" {
		if _, ok := codegen.LookupStrategy(cfg.Generation.Strategy); !ok {
			return fmt.Errorf("generation.strategy: unknown strategy %q (available: %v)",
				cfg.Generation.Strategy, codegen.StrategyNames())
		}
	}
	if cfg.Generation.Naming != "" {
		if _, ok := codegen.NamingByName(cfg.Generation.Naming); !ok {
			return fmt.Errorf("generation.naming must be %q or %q, got: %s",
				codegen.NamingNone, codegen.NamingComponentKey, cfg.Generation.Naming)
		}
	}
	if cfg.Markers.Props == "" || cfg.Markers.PropsFor == "" {
		return fmt.Errorf("markers.props and markers.props_for must not be empty")
	}
	if cfg.Markers.Props == cfg.Markers.PropsFor {
		return fmt.Errorf("markers.props and markers.props_for must differ, got: %s", cfg.Markers.Props)
	}
	for _, ext := range cfg.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("resolve.extensions entries must start with '.', got: %s", ext)
		}
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got: %d", cfg.Jobs)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	return nil
}

// Path resolves p against the config root.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// LoadSchema loads the configured schema file. A missing file is a CFG401
// error.
func (c *Config) LoadSchema() (*schema.Catalog, error) {
	path := c.Path(c.Schema)
	catalog, err := schema.Load(path)
	if err != nil {
		return nil, errors.NewSchemaLoad(path, err)
	}
	return catalog, nil
}

// TransformOptions builds transformer options: the preset first, then the
// generation overrides. withSchema controls whether the schema is loaded.
func (c *Config) TransformOptions(logger *zap.Logger, withSchema bool) (transform.Options, error) {
	opts, err := transform.PresetOptions(c.Preset)
	if err != nil {
		return transform.Options{}, err
	}

	gen := c.Generation
	if gen.Strategy != "" {
		s, _ := codegen.LookupStrategy(gen.Strategy)
		opts.Strategy = s
	}
	if gen.TemplateTag != "" {
		opts.TemplateTag = gen.TemplateTag
	}
	if gen.ArrowWrap != nil {
		opts.ArrowWrap = *gen.ArrowWrap
	}
	if gen.Naming != "" {
		opts.Naming, _ = codegen.NamingByName(gen.Naming)
	}
	opts.AliasWrapper = gen.AliasWrapper
	opts.ComponentBases = gen.ComponentBases
	opts.ValidateOutput = gen.ValidateOutput
	opts.Markers = registry.Markers{Props: c.Markers.Props, PropsFor: c.Markers.PropsFor}

	opts.Resolve = resolve.Config{
		BaseDir:     c.Path(c.Resolve.BaseDir),
		Paths:       c.Resolve.Paths,
		Extensions:  c.Resolve.Extensions,
		NodeModules: c.Resolve.NodeModules,
	}
	opts.Logger = logger

	if withSchema && c.Schema != "" {
		catalog, err := c.LoadSchema()
		if err != nil {
			return transform.Options{}, err
		}
		opts.Catalog = catalog
	}
	return opts, nil
}

// Write saves cfg as YAML.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

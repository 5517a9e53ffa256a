package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/codegen"
	"github.com/propfrag/propfrag/internal/compiler/components"
	"github.com/propfrag/propfrag/internal/compiler/normalize"
	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/resolve"
	"github.com/propfrag/propfrag/internal/compiler/schema"
)

// Options configures a Transformer.
type Options struct {
	// Markers are the sentinel function names.
	Markers registry.Markers

	// Naming derives fragment names when a call gives none.
	Naming codegen.NamingFunc

	// TemplateTag wraps the fragment text, e.g. Relay.QL or gql.
	TemplateTag string

	// ArrowWrap emits `() => tag` instead of a bare tagged template.
	ArrowWrap bool

	// Strategy composes child fragments.
	Strategy codegen.Strategy

	// ComponentBases are the base classes accepted for `props: T` fields.
	ComponentBases []string

	// AliasWrapper is the generic that renames fields on the wire.
	AliasWrapper string

	// Resolve configures module resolution for imports.
	Resolve resolve.Config

	// Catalog is the schema fragments are checked against. Nil skips the check.
	Catalog *schema.Catalog

	// ValidateOutput parses every generated fragment before splicing it.
	ValidateOutput bool

	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the relay preset without a schema.
func DefaultOptions() Options {
	opts, _ := PresetOptions("relay")
	return opts
}

// PresetOptions returns options for a built-in preset.
func PresetOptions(name string) (Options, error) {
	preset, err := codegen.LookupPreset(name)
	if err != nil {
		return Options{}, err
	}
	strategy, ok := codegen.LookupStrategy(preset.Strategy)
	if !ok {
		return Options{}, fmt.Errorf("preset %s: unknown strategy %q", name, preset.Strategy)
	}
	naming, _ := codegen.NamingByName(preset.Naming)
	return Options{
		Markers:        registry.DefaultMarkers,
		Naming:         naming,
		TemplateTag:    preset.TemplateTag,
		ArrowWrap:      preset.ArrowWrap,
		Strategy:       strategy,
		ComponentBases: components.DefaultBases,
		AliasWrapper:   normalize.DefaultAliasWrapper,
		ValidateOutput: true,
	}, nil
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.Markers.Props == "" {
		o.Markers.Props = registry.DefaultMarkers.Props
	}
	if o.Markers.PropsFor == "" {
		o.Markers.PropsFor = registry.DefaultMarkers.PropsFor
	}
	if o.Naming == nil {
		o.Naming = codegen.Anonymous
	}
	if o.TemplateTag == "" {
		o.TemplateTag = "Relay.QL"
	}
	if o.Strategy == nil {
		o.Strategy = codegen.Relay{}
	}
	if o.AliasWrapper == "" {
		o.AliasWrapper = normalize.DefaultAliasWrapper
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

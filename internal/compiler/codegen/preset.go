package codegen

import (
	"fmt"
	"sort"
)

// Preset bundles the output conventions of one GraphQL client.
type Preset struct {
	Name        string
	Strategy    string
	TemplateTag string
	ArrowWrap   bool
	Naming      string
}

var presets = map[string]Preset{
	"relay": {
		Name:        "relay",
		Strategy:    "relay",
		TemplateTag: "Relay.QL",
		ArrowWrap:   true,
		Naming:      NamingNone,
	},
	"apollo": {
		Name:        "apollo",
		Strategy:    "apollo",
		TemplateTag: "gql",
		ArrowWrap:   false,
		Naming:      NamingComponentKey,
	},
}

// LookupPreset returns a built-in preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wrap embeds fragment text in a tagged template, optionally behind an arrow
// function: () => Relay.QL`...` or gql`...`.
func Wrap(fragment, tag string, arrow bool) string {
	expr := tag + "`\n" + fragment + "`"
	if arrow {
		return "() => " + expr
	}
	return expr
}

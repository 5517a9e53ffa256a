package codegen

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NamingFunc derives a fragment name from the component and fragment key.
// An empty result leaves the fragment anonymous.
type NamingFunc func(component, key string) string

// Naming schemes selectable from configuration.
const (
	NamingNone         = "none"
	NamingComponentKey = "component-key"
)

// UpperFirst upper-cases the first letter and leaves the rest untouched.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	// Casers carry state and are not safe for concurrent use.
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}

// ComponentKeyName is the apollo fragment name, e.g. ArticleArticleFragment.
func ComponentKeyName(component, key string) string {
	return component + UpperFirst(key) + "Fragment"
}

// Anonymous never names fragments.
func Anonymous(string, string) string {
	return ""
}

// NamingByName resolves a configured naming scheme.
func NamingByName(name string) (NamingFunc, bool) {
	switch name {
	case NamingNone, "":
		return Anonymous, true
	case NamingComponentKey:
		return ComponentKeyName, true
	}
	return nil, false
}

// DefaultTypeName is the fragment type used when none is given: the
// upper-cased property key.
func DefaultTypeName(key string) string {
	return UpperFirst(key)
}

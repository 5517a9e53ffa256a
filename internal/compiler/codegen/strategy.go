package codegen

import (
	"fmt"
	"sort"
	"sync"
)

// Strategy decides how a child component's fragment is referenced from a
// parent fragment. Inside returns the line placed before the parent's closing
// brace, Outside the line appended after the fragment block. Either may
// decline by returning false.
type Strategy interface {
	Inside(component, key string) (string, bool)
	Outside(component, key string) (string, bool)
}

// Relay interpolates the child's getFragment call inside the selection.
type Relay struct{}

// Inside returns `${Comp.getFragment('key')}`.
func (Relay) Inside(component, key string) (string, bool) {
	return fmt.Sprintf("${%s.getFragment('%s')}", component, key), true
}

// Outside is unused for relay.
func (Relay) Outside(string, string) (string, bool) {
	return "", false
}

// Apollo spreads named fragments and appends their definitions after the block.
type Apollo struct{}

// Inside returns `...CompKeyFragment`.
func (Apollo) Inside(component, key string) (string, bool) {
	return "..." + ComponentKeyName(component, key), true
}

// Outside returns `${Comp.fragments.key}`.
func (Apollo) Outside(component, key string) (string, bool) {
	return fmt.Sprintf("${%s.fragments.%s}", component, key), true
}

var (
	strategiesMu sync.RWMutex
	strategies   = map[string]Strategy{
		"relay":  Relay{},
		"apollo": Apollo{},
	}
)

// RegisterStrategy makes a strategy available by name. Registering an
// existing name replaces it.
func RegisterStrategy(name string, s Strategy) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	strategies[name] = s
}

// LookupStrategy returns the strategy registered under name.
func LookupStrategy(name string) (Strategy, bool) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	s, ok := strategies[name]
	return s, ok
}

// StrategyNames lists registered strategies.
func StrategyNames() []string {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

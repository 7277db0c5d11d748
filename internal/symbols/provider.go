// Package symbols supplies documentation strings for @docs directives,
// keyed by qualified symbol name ("module.Symbol").
package symbols

// Provider looks up the documentation string for a qualified symbol name.
// The build pipeline only consumes this interface; how docstrings are
// collected (Go source introspection, static tables) is the provider's
// concern.
type Provider interface {
	Lookup(qualifiedName string) (string, bool)
}

// Static is a fixed symbol table, used in tests and for hand-maintained
// docstring overrides.
type Static map[string]string

// Lookup implements Provider.
func (s Static) Lookup(qualifiedName string) (string, bool) {
	doc, ok := s[qualifiedName]
	return doc, ok
}

// Multi queries providers in order and returns the first hit, so earlier
// modules in the configuration shadow later ones.
type Multi []Provider

// Lookup implements Provider.
func (m Multi) Lookup(qualifiedName string) (string, bool) {
	for _, p := range m {
		if doc, ok := p.Lookup(qualifiedName); ok {
			return doc, true
		}
	}
	return "", false
}

// Package variables implements the four-tier variable precedence merge
// and ${VAR}/${VAR:-default} interpolation, using regex-gated
// substitution with a type-validation pass over declared variables.
package variables

import "github.com/readystackgo/rsgo/internal/manifest"

// Tiers holds the four precedence layers (lowest to highest):
// DeclaredDefault < ExistingValue (upgrade-only) < Shared < PerStack.
type Tiers struct {
	DeclaredDefault map[string]string
	ExistingValue   map[string]string
	Shared          map[string]string
	PerStack        map[string]string
}

// Merge is the pure, testable precedence function every deploy/upgrade
// call site must use unchanged. Later tiers override earlier ones for
// the same key.
func Merge(t Tiers) map[string]string {
	out := make(map[string]string, len(t.DeclaredDefault))
	apply := func(tier map[string]string) {
		for k, v := range tier {
			out[k] = v
		}
	}
	apply(t.DeclaredDefault)
	apply(t.ExistingValue)
	apply(t.Shared)
	apply(t.PerStack)
	return out
}

// DefaultsFor extracts the DeclaredDefault tier from a set of VarDecls,
// skipping variables with no declared default.
func DefaultsFor(decls map[string]manifest.VarDecl) map[string]string {
	out := make(map[string]string, len(decls))
	for name, decl := range decls {
		if decl.Default != "" {
			out[name] = decl.Default
		}
	}
	return out
}

// MissingRequired returns the names of required variables absent from
// the final merged map.
func MissingRequired(decls map[string]manifest.VarDecl, final map[string]string) []string {
	var missing []string
	for name, decl := range decls {
		if !decl.Required {
			continue
		}
		if _, ok := final[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

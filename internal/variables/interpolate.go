package variables

import (
	"bytes"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// placeholderPattern matches ${VAR} and ${VAR:-default}; a default may
// contain {{ ... }} template actions.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-((?:\{\{.*?\}\}|[^}])*))?\}`)

// Substitute replaces every ${VAR} / ${VAR:-default} occurrence in s with
// the value from vars, falling back to the inline default when VAR is
// absent, and to the empty string when neither exists. Substitution is
// idempotent once vars is fully defined (invariant I3): the output
// contains no further placeholders, so a second pass is a no-op.
//
// An inline default containing {{ }} delimiters is treated as a
// computed-default escape hatch: it is rendered as a text/template
// (with sprig's function map) against vars before use, so a manifest can
// write ${REPLICAS:-{{ mul 2 3 }}} instead of a fixed literal. A default
// with no template delimiters is used verbatim, so the overwhelming
// majority of manifests never pay the template-parse cost.
func Substitute(s string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name := groups[1]
		hasDefault := groups[2] != ""
		def := groups[3]

		if v, ok := vars[name]; ok {
			return v
		}
		if hasDefault {
			return renderComputedDefault(def, vars)
		}
		return ""
	})
}

// renderComputedDefault evaluates def as a text/template (sprig funcs,
// vars as the dot) when it looks like one, else returns it unchanged. A
// template that fails to parse or execute falls back to the raw default
// text rather than propagating an error into what is, at this point, an
// ordinary string substitution.
func renderComputedDefault(def string, vars map[string]string) string {
	if !strings.Contains(def, "{{") {
		return def
	}
	tmpl, err := template.New("default").Funcs(sprig.TxtFuncMap()).Parse(def)
	if err != nil {
		return def
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return def
	}
	return buf.String()
}

// SubstituteMap applies Substitute to every value of a string map,
// returning a new map.
func SubstituteMap(m map[string]string, vars map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Substitute(v, vars)
	}
	return out
}

// SubstituteSlice applies Substitute to every element of a string slice,
// returning a new slice.
func SubstituteSlice(s []string, vars map[string]string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = Substitute(v, vars)
	}
	return out
}

// ReferencedNames returns every variable name referenced by ${VAR} or
// ${VAR:-default} placeholders in s, for missing-variable diagnostics.
func ReferencedNames(s string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

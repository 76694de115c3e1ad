package variables

import "testing"

func TestSubstituteBasic(t *testing.T) {
	vars := map[string]string{"HOST": "db.internal", "PORT": "5432"}
	got := Substitute("postgres://${HOST}:${PORT}/app", vars)
	want := "postgres://db.internal:5432/app"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSubstituteComputedDefaultRendersSprigTemplate(t *testing.T) {
	got := Substitute("${REPLICAS:-{{ mul 2 3 }}}", map[string]string{})
	if got != "6" {
		t.Fatalf("got %q want 6", got)
	}
}

func TestSubstituteComputedDefaultCanReferenceOtherVars(t *testing.T) {
	vars := map[string]string{"ENV": "staging"}
	got := Substitute("${NAMESPACE:-{{ .ENV | upper }}}", vars)
	if got != "STAGING" {
		t.Fatalf("got %q want STAGING", got)
	}
}

func TestSubstituteComputedDefaultFallsBackOnBadTemplate(t *testing.T) {
	got := Substitute("${MODE:-{{ not valid }}}", map[string]string{})
	if got != "{{ not valid }}" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstituteInlineDefault(t *testing.T) {
	got := Substitute("${MODE:-production}", map[string]string{})
	if got != "production" {
		t.Fatalf("got %q want production", got)
	}
}

func TestSubstituteVarsOverridesDefault(t *testing.T) {
	got := Substitute("${MODE:-production}", map[string]string{"MODE": "staging"})
	if got != "staging" {
		t.Fatalf("got %q want staging", got)
	}
}

func TestSubstituteMissingNoDefaultBecomesEmpty(t *testing.T) {
	got := Substitute("prefix-${UNSET}-suffix", map[string]string{})
	if got != "prefix--suffix" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstituteIdempotent(t *testing.T) {
	vars := map[string]string{"A": "x", "B": "y"}
	input := "${A}/${B}/${C:-z}"
	once := Substitute(input, vars)
	twice := Substitute(once, vars)
	if once != twice {
		t.Fatalf("substitution not idempotent: once=%q twice=%q", once, twice)
	}
}

func TestSubstituteMap(t *testing.T) {
	vars := map[string]string{"NAME": "web"}
	m := map[string]string{"SERVICE_NAME": "${NAME}-svc"}
	out := SubstituteMap(m, vars)
	if out["SERVICE_NAME"] != "web-svc" {
		t.Fatalf("got %q", out["SERVICE_NAME"])
	}
}

func TestSubstituteSlice(t *testing.T) {
	vars := map[string]string{"PORT": "8080"}
	out := SubstituteSlice([]string{"${PORT}:80"}, vars)
	if len(out) != 1 || out[0] != "8080:80" {
		t.Fatalf("got %v", out)
	}
}

func TestReferencedNames(t *testing.T) {
	names := ReferencedNames("${A}-${B:-default}-${A}")
	if len(names) != 3 {
		t.Fatalf("got %v", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Fatalf("missing expected names in %v", names)
	}
}

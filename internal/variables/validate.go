package variables

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/readystackgo/rsgo/internal/manifest"
)

// ValidationResult is a structured return value in place of
// exception-based validators, specialized to variable submission.
type ValidationResult struct {
	IsValid         bool
	VariableErrors  map[string]string
	MissingRequired []string
}

// ValidateTypes checks every declared variable's final resolved value
// against its VarDecl type: Port must be 1-65535, Integer respects
// min/max, Boolean accepts true/false case-insensitively, Select must
// match one of options.value, String with a pattern must match, Password
// is opaque (never validated beyond presence).
func ValidateTypes(decls map[string]manifest.VarDecl, values map[string]string) ValidationResult {
	result := ValidationResult{IsValid: true, VariableErrors: map[string]string{}}

	result.MissingRequired = MissingRequired(decls, values)
	if len(result.MissingRequired) > 0 {
		result.IsValid = false
	}

	for name, decl := range decls {
		value, present := values[name]
		if !present {
			continue
		}
		if err := validateOne(decl, value); err != "" {
			result.IsValid = false
			result.VariableErrors[name] = err
		}
	}
	return result
}

func validateOne(decl manifest.VarDecl, value string) string {
	switch decl.Type {
	case manifest.VarTypePort:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Sprintf("%q is not a valid port number", value)
		}
		if n < 1 || n > 65535 {
			return fmt.Sprintf("port %d out of range 1-65535", n)
		}
	case manifest.VarTypeInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Sprintf("%q is not a valid integer", value)
		}
		if decl.Min != nil && n < *decl.Min {
			return fmt.Sprintf("%d is below minimum %d", n, *decl.Min)
		}
		if decl.Max != nil && n > *decl.Max {
			return fmt.Sprintf("%d is above maximum %d", n, *decl.Max)
		}
	case manifest.VarTypeBoolean:
		switch strings.ToLower(value) {
		case "true", "false":
		default:
			return fmt.Sprintf("%q is not a valid boolean", value)
		}
	case manifest.VarTypeSelect:
		ok := false
		for _, opt := range decl.Options {
			if opt.Value == value {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Sprintf("%q is not one of the allowed options", value)
		}
	case manifest.VarTypeString, manifest.VarTypeEventStoreConnectionString:
		if re := decl.CompiledPattern(); re != nil && !re.MatchString(value) {
			if decl.PatternError != "" {
				return decl.PatternError
			}
			return fmt.Sprintf("%q does not match required pattern", value)
		}
	case manifest.VarTypePassword:
		// opaque: no content validation beyond presence, already checked.
	}
	return ""
}

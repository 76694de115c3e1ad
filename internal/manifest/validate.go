package manifest

import "fmt"

// Validate checks a fully include-resolved Manifest's structural rules,
// returning a structured result rather than failing fast — every
// problem is collected so a caller can surface them all at once.
func Validate(m Manifest) ValidationResult {
	result := ValidationResult{IsValid: true}

	addError := func(format string, args ...interface{}) {
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}
	addWarning := func(format string, args ...interface{}) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	if !m.Metadata.IsProduct() {
		addWarning("manifest %q has no productVersion; it is a fragment and must be included", m.Metadata.Name)
	}

	validateVarDecls(m.Variables, addError, addWarning)
	validateVarDecls(m.SharedVariables, addError, addWarning)

	if m.IsMultiStack() {
		for name, stack := range m.Stacks {
			validateStack(name, stack, addError, addWarning)
		}
	} else {
		if len(m.Services) == 0 {
			addError("manifest %q has no services", m.Metadata.Name)
		}
		validateServiceImages(m.Metadata.Name, m.Services, addError)
	}

	return result
}

func validateStack(name string, stack StackEntry, addError, addWarning func(string, ...interface{})) {
	if stack.IsInclude() {
		return
	}
	if len(stack.Services) == 0 {
		addError("stack %q has neither services nor include", name)
	}
	validateVarDecls(stack.Variables, addError, addWarning)
	validateServiceImages(name, stack.Services, addError)
}

func validateServiceImages(scope string, services map[string]ServiceTemplate, addError func(string, ...interface{})) {
	for name, svc := range services {
		if svc.Image == "" {
			addError("stack %q: service %q has an empty image", scope, name)
		}
	}
}

func validateVarDecls(vars map[string]VarDecl, addError, addWarning func(string, ...interface{})) {
	for name, decl := range vars {
		if decl.Type == VarTypeSelect && len(decl.Options) == 0 {
			addWarning("variable %q is type Select with zero options", name)
		}
		if decl.Pattern != "" {
			if decl.CompiledPattern() == nil {
				addError("variable %q has an invalid pattern regex: %q", name, decl.Pattern)
			}
		}
	}
}

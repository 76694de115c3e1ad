package manifest

import "sort"

// StackNames returns the manifest's stack names in declaration order (the
// order the "stacks:" mapping was written in source YAML). Manifests built
// directly in Go rather than parsed from YAML carry no such order, so this
// falls back to a sorted order whenever StacksOrder doesn't account for
// every entry in Stacks.
func (m Manifest) StackNames() []string {
	if len(m.StacksOrder) == len(m.Stacks) {
		return append([]string(nil), m.StacksOrder...)
	}
	names := make([]string, 0, len(m.Stacks))
	for name := range m.Stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServicesOrderFor returns the declared service names for stackName in
// declaration order, with the same sorted fallback StackNames uses when no
// recorded order is available.
func (m Manifest) ServicesOrderFor(stackName string) []string {
	services := m.ServicesFor(stackName)

	var declared []string
	if m.IsMultiStack() {
		declared = m.Stacks[stackName].ServicesOrder
	} else {
		declared = m.ServicesOrder
	}

	if len(declared) == len(services) {
		return append([]string(nil), declared...)
	}
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServicesFor returns the effective services dictionary for a stack name,
// whether the manifest is single-stack (name is ignored) or multi-stack.
func (m Manifest) ServicesFor(stackName string) map[string]ServiceTemplate {
	if !m.IsMultiStack() {
		return m.Services
	}
	return m.Stacks[stackName].Services
}

// ExtractStackVariables returns sharedVariables ∪ stack.variables for the
// named stack; on name collision the stack's own declaration wins.
func (m Manifest) ExtractStackVariables(stackName string) map[string]VarDecl {
	merged := make(map[string]VarDecl, len(m.SharedVariables))
	for name, decl := range m.SharedVariables {
		merged[name] = decl
	}
	var stackVars map[string]VarDecl
	if m.IsMultiStack() {
		stackVars = m.Stacks[stackName].Variables
	} else {
		stackVars = m.Variables
	}
	for name, decl := range stackVars {
		merged[name] = decl
	}
	return merged
}

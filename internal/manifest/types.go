// Package manifest implements the multi-stack product/fragment manifest
// model, its YAML parser, include resolution, and validation.
package manifest

import "regexp"

// VarType enumerates the recognized VarDecl types.
type VarType string

const (
	VarTypeString                     VarType = "String"
	VarTypePassword                   VarType = "Password"
	VarTypePort                       VarType = "Port"
	VarTypeBoolean                    VarType = "Boolean"
	VarTypeInteger                    VarType = "Integer"
	VarTypeSelect                     VarType = "Select"
	VarTypeEventStoreConnectionString VarType = "EventStoreConnectionString"
)

// SelectOption is one choice of a Select-typed variable.
type SelectOption struct {
	Value string `yaml:"value"`
	Label string `yaml:"label,omitempty"`
}

// VarDecl declares one manifest variable.
type VarDecl struct {
	Label        string         `yaml:"label,omitempty"`
	Description  string         `yaml:"description,omitempty"`
	Type         VarType        `yaml:"type,omitempty"`
	Default      string         `yaml:"default,omitempty"`
	Required     bool           `yaml:"required,omitempty"`
	Min          *int           `yaml:"min,omitempty"`
	Max          *int           `yaml:"max,omitempty"`
	Pattern      string         `yaml:"pattern,omitempty"`
	PatternError string         `yaml:"patternError,omitempty"`
	Group        string         `yaml:"group,omitempty"`
	Order        int            `yaml:"order,omitempty"`
	Options      []SelectOption `yaml:"options,omitempty"`
}

// CompiledPattern lazily compiles Pattern, returning nil if it is empty
// or invalid. Validation is responsible for surfacing invalid
// patterns as errors; callers that only need matching treat a nil result
// as "no constraint".
func (v VarDecl) CompiledPattern() *regexp.Regexp {
	if v.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile(v.Pattern)
	if err != nil {
		return nil
	}
	return re
}

// ServiceTemplate is one service entry within a stack's services map.
type ServiceTemplate struct {
	Image     string            `yaml:"image"`
	Env       map[string]string `yaml:"env,omitempty"`
	Ports     []string          `yaml:"ports,omitempty"`
	Volumes   []string          `yaml:"volumes,omitempty"`
	Networks  []string          `yaml:"networks,omitempty"`
	DependsOn []string          `yaml:"depends_on,omitempty"`
	Init      bool              `yaml:"init,omitempty"`
	Command   []string          `yaml:"command,omitempty"`
}

// StackEntry is either an inline stack or an include reference. Exactly
// one of Include or (Services/inline metadata) is populated once parsed.
type StackEntry struct {
	Include         string                     `yaml:"include,omitempty"`
	Metadata        Metadata                   `yaml:"metadata,omitempty"`
	Variables       map[string]VarDecl         `yaml:"variables,omitempty"`
	Services        map[string]ServiceTemplate `yaml:"services,omitempty"`
	ServicesInclude []string                   `yaml:"-"` // populated from services.include after parse
	ServicesOrder   []string                   `yaml:"-"` // services: key order as written, excluding "include"
}

// IsInclude reports whether this stack entry is a bare include reference.
func (s StackEntry) IsInclude() bool {
	return s.Include != ""
}

// Metadata describes a manifest's identity.
type Metadata struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description,omitempty"`
	Category       string `yaml:"category,omitempty"`
	ProductID      string `yaml:"productId,omitempty"`
	ProductVersion string `yaml:"productVersion,omitempty"`
}

// IsProduct reports whether this manifest is deployable standalone
// (carries a productVersion) rather than only includable as a fragment.
func (m Metadata) IsProduct() bool {
	return m.ProductVersion != ""
}

// MaintenanceObserverKind enumerates the supported observer collaborators.
// The core only models and persists the declaration.
type MaintenanceObserverKind string

const (
	ObserverSQLExtendedProperty MaintenanceObserverKind = "sqlExtendedProperty"
	ObserverSQLQuery            MaintenanceObserverKind = "sqlQuery"
	ObserverHTTP                MaintenanceObserverKind = "http"
	ObserverFile                MaintenanceObserverKind = "file"
)

// MaintenanceObserver declares an externally-evaluated maintenance-mode
// flag source.
type MaintenanceObserver struct {
	Kind             MaintenanceObserverKind `yaml:"kind"`
	Connection       string                  `yaml:"connection,omitempty"`
	Path             string                  `yaml:"path,omitempty"`
	URL              string                  `yaml:"url,omitempty"`
	PollingInterval  string                  `yaml:"pollingInterval,omitempty"`
	MaintenanceValue string                  `yaml:"maintenanceValue,omitempty"`
	NormalValue      string                  `yaml:"normalValue,omitempty"`
	Headers          map[string]string       `yaml:"headers,omitempty"`
	JSONPath         string                  `yaml:"jsonPath,omitempty"`
	Mode             string                  `yaml:"mode,omitempty"`
}

type maintenanceBlock struct {
	Observer *MaintenanceObserver `yaml:"observer,omitempty"`
}

// Manifest is the parsed, immutable manifest model. Single-stack
// manifests populate Services (and leave Stacks nil); multi-stack
// manifests populate Stacks (and leave Services nil).
type Manifest struct {
	Version         string                     `yaml:"version,omitempty"`
	Metadata        Metadata                   `yaml:"metadata"`
	Services        map[string]ServiceTemplate `yaml:"services,omitempty"`
	ServicesInclude []string                   `yaml:"-"`
	ServicesOrder   []string                   `yaml:"-"` // services: key order as written, excluding "include"
	Stacks          map[string]StackEntry      `yaml:"stacks,omitempty"`
	StacksOrder     []string                   `yaml:"-"` // stacks: key order as written
	Variables       map[string]VarDecl         `yaml:"variables,omitempty"`
	SharedVariables map[string]VarDecl         `yaml:"sharedVariables,omitempty"`
	Maintenance     *maintenanceBlock          `yaml:"maintenance,omitempty"`

	// SourcePath is the absolute path this manifest was parsed from, used
	// to resolve sibling include: paths. Empty for in-memory manifests.
	SourcePath string `yaml:"-"`
}

// Observer returns the declared maintenance observer, or nil if absent.
func (m Manifest) Observer() *MaintenanceObserver {
	if m.Maintenance == nil {
		return nil
	}
	return m.Maintenance.Observer
}

// IsMultiStack reports whether this manifest uses the top-level stacks:
// shape rather than a single services: map.
func (m Manifest) IsMultiStack() bool {
	return m.Stacks != nil
}

// ValidationResult is the structured outcome of Validate: a return value
// in place of exception-for-control-flow.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

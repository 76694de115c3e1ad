package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a Manifest, special-casing the "services:"
// mapping so its sibling "include" key (services.include: [...]) is
// split out from the genuine service entries rather than decoded as
// one.
func (m *Manifest) UnmarshalYAML(node *yaml.Node) error {
	type shadow struct {
		Version         string                `yaml:"version,omitempty"`
		Metadata        Metadata              `yaml:"metadata"`
		Stacks          map[string]StackEntry `yaml:"stacks,omitempty"`
		Variables       map[string]VarDecl    `yaml:"variables,omitempty"`
		SharedVariables map[string]VarDecl    `yaml:"sharedVariables,omitempty"`
		Maintenance     *maintenanceBlock     `yaml:"maintenance,omitempty"`
	}

	var s shadow
	if err := node.Decode(&s); err != nil {
		return err
	}
	m.Version = s.Version
	m.Metadata = s.Metadata
	m.Stacks = s.Stacks
	m.Variables = s.Variables
	m.SharedVariables = s.SharedVariables
	m.Maintenance = s.Maintenance

	if stacksNode := mappingValue(node, "stacks"); stacksNode != nil {
		m.StacksOrder = mappingKeyOrder(stacksNode)
	}

	servicesNode := mappingValue(node, "services")
	if servicesNode != nil {
		services, include, order, err := decodeServicesNode(servicesNode)
		if err != nil {
			return fmt.Errorf("decoding services: %w", err)
		}
		m.Services = services
		m.ServicesInclude = include
		m.ServicesOrder = order
	}
	return nil
}

// UnmarshalYAML decodes a StackEntry, applying the same services/include
// split as Manifest.
func (s *StackEntry) UnmarshalYAML(node *yaml.Node) error {
	type shadow struct {
		Include   string             `yaml:"include,omitempty"`
		Metadata  Metadata           `yaml:"metadata,omitempty"`
		Variables map[string]VarDecl `yaml:"variables,omitempty"`
	}
	var sh shadow
	if err := node.Decode(&sh); err != nil {
		return err
	}
	s.Include = sh.Include
	s.Metadata = sh.Metadata
	s.Variables = sh.Variables

	servicesNode := mappingValue(node, "services")
	if servicesNode != nil {
		services, include, order, err := decodeServicesNode(servicesNode)
		if err != nil {
			return fmt.Errorf("decoding services: %w", err)
		}
		s.Services = services
		s.ServicesInclude = include
		s.ServicesOrder = order
	}
	return nil
}

// mappingKeyOrder returns node's mapping keys in source order.
func mappingKeyOrder(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

// mappingValue returns the value node for key within a mapping node, or
// nil if absent or node is not a mapping.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// decodeServicesNode splits a services: mapping into its genuine service
// entries, its sibling "include" key (a list of fragment paths whose
// services are merged into this dictionary), and the declaration order of
// the genuine entries (excluding "include").
func decodeServicesNode(node *yaml.Node) (map[string]ServiceTemplate, []string, []string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nil, nil, fmt.Errorf("services must be a mapping")
	}

	var include []string
	var order []string
	remaining := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value == "include" {
			if err := value.Decode(&include); err != nil {
				return nil, nil, nil, fmt.Errorf("services.include: %w", err)
			}
			continue
		}
		order = append(order, key.Value)
		remaining.Content = append(remaining.Content, key, value)
	}

	services := map[string]ServiceTemplate{}
	if len(remaining.Content) > 0 {
		if err := remaining.Decode(&services); err != nil {
			return nil, nil, nil, err
		}
	}
	return services, include, order, nil
}

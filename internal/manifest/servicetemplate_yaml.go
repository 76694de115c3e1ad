package manifest

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts both the native shape (env: map, depends_on:
// list) and the Compose shape (environment: list-of-"K=V"-or-map,
// depends_on: map keyed by service name) so detectFormat's two input
// shapes both parse into the same ServiceTemplate.
func (s *ServiceTemplate) UnmarshalYAML(value *yaml.Node) error {
	type rawService struct {
		Image       string    `yaml:"image"`
		Env         yaml.Node `yaml:"env"`
		Environment yaml.Node `yaml:"environment"`
		Ports       []string  `yaml:"ports,omitempty"`
		Volumes     []string  `yaml:"volumes,omitempty"`
		Networks    yaml.Node `yaml:"networks"`
		DependsOn   yaml.Node `yaml:"depends_on"`
		Init        bool      `yaml:"init,omitempty"`
		Command     yaml.Node `yaml:"command"`
	}

	var raw rawService
	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Image = raw.Image
	s.Ports = raw.Ports
	s.Volumes = raw.Volumes
	s.Init = raw.Init

	s.Env = map[string]string{}
	if err := decodeEnvLike(&raw.Env, s.Env); err != nil {
		return err
	}
	if err := decodeEnvLike(&raw.Environment, s.Env); err != nil {
		return err
	}

	s.Networks = decodeStringListOrMapKeys(&raw.Networks)
	s.DependsOn = decodeStringListOrMapKeys(&raw.DependsOn)
	s.Command = decodeStringOrList(&raw.Command)

	return nil
}

// decodeEnvLike accepts a YAML mapping (key: value) or a sequence of
// "KEY=VALUE" strings (the Compose "environment:" list form) and merges
// into dst.
func decodeEnvLike(node *yaml.Node, dst map[string]string) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		for k, v := range m {
			dst[k] = v
		}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		for _, entry := range list {
			if k, v, ok := strings.Cut(entry, "="); ok {
				dst[k] = v
			}
		}
	}
	return nil
}

// decodeStringListOrMapKeys accepts either a YAML sequence of strings or
// a mapping (Compose's "depends_on: {db: {condition: ...}}" form),
// returning the mapping's keys in the latter case.
func decodeStringListOrMapKeys(node *yaml.Node) []string {
	if node == nil || node.Kind == 0 {
		return nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err == nil {
			return list
		}
	case yaml.MappingNode:
		keys := make([]string, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			keys = append(keys, node.Content[i].Value)
		}
		return keys
	}
	return nil
}

// decodeStringOrList accepts either a bare string (shell form) or a
// sequence (exec form) for "command:".
func decodeStringOrList(node *yaml.Node) []string {
	if node == nil || node.Kind == 0 {
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err == nil {
			return list
		}
	}
	return nil
}

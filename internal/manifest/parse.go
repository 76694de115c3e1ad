package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format identifies the manifest's top-level shape.
type Format string

const (
	FormatNative  Format = "native"
	FormatCompose Format = "compose"
)

// detectFormat classifies a manifest document: the presence of a
// top-level variables: block or a metadata.productVersion marks it
// native; otherwise it is treated as a plain Compose file. Both shapes
// parse identically into the Manifest model — detection only drives
// the "fragment; must be included" warning below.
func detectFormat(m Manifest) Format {
	if len(m.Variables) > 0 || m.Metadata.ProductVersion != "" {
		return FormatNative
	}
	return FormatCompose
}

// ParseBytes parses raw YAML into a Manifest without resolving includes.
func ParseBytes(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

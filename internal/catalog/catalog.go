// Package catalog implements the in-memory ProductDefinition catalog,
// keyed by (groupId, productVersion) and SemVer-ordered, using a
// map+RWMutex store shape and github.com/Masterminds/semver/v3 for
// version comparison.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/manifest"
)

// StackConfig is one stack entry within a ProductDefinition, naming its
// display name, source manifest path, and declared order for deploy and
// removal sequencing.
type StackConfig struct {
	DisplayName  string
	ManifestPath string
	Order        int
}

// ProductDefinition is one catalog entry: a specific version of a
// product, with its resolved manifest and per-stack configuration.
type ProductDefinition struct {
	ProductID      string
	GroupID        string
	SourceID       string
	Name           string
	ProductVersion string
	Manifest       manifest.Manifest
	Stacks         []StackConfig
}

// DeriveStackConfigs builds a ProductDefinition's []StackConfig directly
// from its manifest, in declaration order: one synthetic entry for a
// single-stack manifest (services: at the top level), or one entry per
// multi-stack "stacks:" mapping key, each DisplayName preferring the
// stack's own metadata.name over its manifest key. This is the bridge
// real manifest ingestion (internal/catalog.Watcher) uses to populate
// ProductDefinition.Stacks; callers that already know their stack
// breakdown (tests, hand-built definitions) may still set Stacks directly.
func DeriveStackConfigs(m manifest.Manifest) []StackConfig {
	if !m.IsMultiStack() {
		name := m.Metadata.Name
		return []StackConfig{{DisplayName: name, ManifestPath: name, Order: 0}}
	}

	names := m.StackNames()
	configs := make([]StackConfig, len(names))
	for i, name := range names {
		displayName := m.Stacks[name].Metadata.Name
		if displayName == "" {
			displayName = name
		}
		configs[i] = StackConfig{DisplayName: displayName, ManifestPath: name, Order: i}
	}
	return configs
}

type key struct {
	groupID string
	version string
}

// Catalog is the in-memory product catalog. A single writer/many-reader
// discipline guarantees Set/Remove/Clear mutations appear atomic to
// readers.
type Catalog struct {
	mu       sync.RWMutex
	products map[key]*ProductDefinition
}

func New() *Catalog {
	return &Catalog{products: make(map[key]*ProductDefinition)}
}

// Set stores (or replaces) a product definition, keyed by its
// (groupId, productVersion) pair.
func (c *Catalog) Set(def ProductDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := def
	c.products[key{groupID: def.GroupID, version: def.ProductVersion}] = &cp
}

// Remove deletes one (groupId, version) entry.
func (c *Catalog) Remove(groupID, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, key{groupID: groupID, version: version})
}

// Clear empties the catalog.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = make(map[key]*ProductDefinition)
}

// Get returns the product definition for an exact (groupId, version), or
// NotFound.
func (c *Catalog) Get(groupID, version string) (*ProductDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.products[key{groupID: groupID, version: version}]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NewProductNotFoundError(groupID + "@" + version)
}

// GetByProductID returns the product definition whose ProductID matches,
// regardless of group, or NotFound.
func (c *Catalog) GetByProductID(productID string) (*ProductDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ProductID == productID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NewProductNotFoundError(productID)
}

// GetBySourceAndName falls back to the latest version across all groups
// whose product carries the given legacy (sourceId, name) pair.
func (c *Catalog) GetBySourceAndName(sourceID, name string) (*ProductDefinition, error) {
	c.mu.RLock()
	var candidates []*ProductDefinition
	for _, p := range c.products {
		if p.SourceID == sourceID && strings.EqualFold(p.Name, name) {
			candidates = append(candidates, p)
		}
	}
	c.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, apperrors.NewProductNotFoundError(sourceID + ":" + name)
	}
	sortBySemverDesc(candidates)
	cp := *candidates[0]
	return &cp, nil
}

// ListForGroup returns every definition for groupID, SemVer descending.
func (c *Catalog) ListForGroup(groupID string) []ProductDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*ProductDefinition
	for _, p := range c.products {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	sortBySemverDesc(out)

	result := make([]ProductDefinition, len(out))
	for i, p := range out {
		result[i] = *p
	}
	return result
}

// GetLatestProductVersion returns the highest-SemVer definition for
// groupID.
func (c *Catalog) GetLatestProductVersion(groupID string) (*ProductDefinition, error) {
	list := c.ListForGroup(groupID)
	if len(list) == 0 {
		return nil, apperrors.NewProductNotFoundError(groupID)
	}
	return &list[0], nil
}

// GetAvailableUpgrades returns every version of groupID strictly greater
// than currentVersion, SemVer descending. Unparseable stored versions are
// skipped rather than erroring the whole call.
func (c *Catalog) GetAvailableUpgrades(groupID, currentVersion string) ([]ProductDefinition, error) {
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return nil, apperrors.NewValidationError("currentVersion", "not a valid semantic version: "+currentVersion)
	}

	var out []ProductDefinition
	for _, p := range c.ListForGroup(groupID) {
		v, err := semver.NewVersion(p.ProductVersion)
		if err != nil {
			continue
		}
		if v.GreaterThan(current) {
			out = append(out, p)
		}
	}
	return out, nil
}

func sortBySemverDesc(defs []*ProductDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		vi, erri := semver.NewVersion(defs[i].ProductVersion)
		vj, errj := semver.NewVersion(defs[j].ProductVersion)
		if erri != nil || errj != nil {
			return defs[i].ProductVersion > defs[j].ProductVersion
		}
		return vi.GreaterThan(vj)
	})
}

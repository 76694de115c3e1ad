// Package registryauth stores registry credentials and resolves an image
// reference to the registry that should authenticate its pull, using a
// sync.RWMutex map-backed store.
package registryauth

import (
	"strings"
	"sync"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

// Registry is one stored registry credential entry, scoped to an
// organization. Credentials are held cleartext — an explicit, documented
// trade-off; callers that want encryption must wrap the store.
type Registry struct {
	ID            ids.RegistryID `yaml:"id"`
	OrgID         string         `yaml:"orgId"`
	Name          string         `yaml:"name"`
	URL           string         `yaml:"url"`
	Username      string         `yaml:"username,omitempty"`
	Password      string         `yaml:"password,omitempty"`
	ImagePatterns []string       `yaml:"imagePatterns,omitempty"`
	IsDefault     bool           `yaml:"isDefault,omitempty"`
}

// Store is the in-memory registry store. One writer at a time, many
// concurrent readers.
type Store struct {
	mu         sync.RWMutex
	registries map[ids.RegistryID]*Registry
}

func NewStore() *Store {
	return &Store{registries: make(map[ids.RegistryID]*Registry)}
}

// Add stores a new registry. If IsDefault is set, any other default
// registry for the same organization is demoted — at most one registry
// per org may be marked default.
func (s *Store) Add(r Registry) (ids.RegistryID, error) {
	if r.Name == "" {
		return "", apperrors.NewValidationError("name", "registry name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.registries {
		if existing.OrgID == r.OrgID && existing.Name == r.Name {
			return "", apperrors.NewValidationError("name", "registry name already in use for this organization")
		}
	}

	if r.ID == "" {
		r.ID = ids.NewRegistryID()
	}
	if r.IsDefault {
		s.clearDefaultLocked(r.OrgID)
	}
	cp := r
	s.registries[cp.ID] = &cp
	return cp.ID, nil
}

// Update replaces a registry's fields in place.
func (s *Store) Update(r Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registries[r.ID]; !ok {
		return apperrors.NewRegistryNotFoundError(string(r.ID))
	}
	if r.IsDefault {
		s.clearDefaultLocked(r.OrgID)
	}
	cp := r
	s.registries[cp.ID] = &cp
	return nil
}

// Remove deletes a registry entry.
func (s *Store) Remove(id ids.RegistryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registries[id]; !ok {
		return apperrors.NewRegistryNotFoundError(string(id))
	}
	delete(s.registries, id)
	return nil
}

// clearDefaultLocked demotes any other default registry for orgID.
// Caller must hold s.mu.
func (s *Store) clearDefaultLocked(orgID string) {
	for _, existing := range s.registries {
		if existing.OrgID == orgID {
			existing.IsDefault = false
		}
	}
}

// ListForOrg returns all registries scoped to orgID.
func (s *Store) ListForOrg(orgID string) []Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Registry
	for _, r := range s.registries {
		if r.OrgID == orgID {
			out = append(out, *r)
		}
	}
	return out
}

// FindMatching resolves an image reference to the registry that should
// authenticate its pull:
//  1. collect every registry for the organization;
//  2. match each registry's ImagePatterns against the repository portion
//     of imageRef using glob semantics ('*' within one path segment, '**'
//     across segments, case-insensitive, tag/digest ignored);
//  3. on multiple matches prefer the longest literal prefix; ties resolve
//     to any matching registry;
//  4. if none match, fall back to the organization's default registry.
func (s *Store) FindMatching(orgID, imageRef string) (*Registry, bool) {
	repo := repositoryOnly(imageRef)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Registry
	bestPrefixLen := -1
	var defaultReg *Registry

	for _, r := range s.registries {
		if r.OrgID != orgID {
			continue
		}
		if r.IsDefault {
			defaultReg = r
		}
		for _, pattern := range r.ImagePatterns {
			if matchGlob(pattern, repo) {
				if prefixLen := literalPrefixLen(pattern); prefixLen > bestPrefixLen {
					best = r
					bestPrefixLen = prefixLen
				}
			}
		}
	}

	if best != nil {
		cp := *best
		return &cp, true
	}
	if defaultReg != nil {
		cp := *defaultReg
		return &cp, true
	}
	return nil, false
}

// repositoryOnly strips the tag/digest suffix from an image reference so
// pattern matching never considers it.
func repositoryOnly(imageRef string) string {
	if at := strings.LastIndex(imageRef, "@"); at != -1 {
		return imageRef[:at]
	}
	lastColon := strings.LastIndex(imageRef, ":")
	if lastColon == -1 {
		return imageRef
	}
	if strings.Contains(imageRef[lastColon+1:], "/") {
		return imageRef
	}
	return imageRef[:lastColon]
}

// literalPrefixLen returns the length of the pattern up to its first glob
// metacharacter, used to break ties between multiple matching patterns.
func literalPrefixLen(pattern string) int {
	if idx := strings.IndexByte(pattern, '*'); idx != -1 {
		return idx
	}
	return len(pattern)
}

// matchGlob matches pattern against s where '*' matches any run of
// characters within one '/'-delimited segment and '**' matches across
// segments, case-insensitively.
func matchGlob(pattern, s string) bool {
	pattern = strings.ToLower(pattern)
	s = strings.ToLower(s)
	return globMatch(splitSegments(pattern), splitSegments(s))
}

func splitSegments(s string) []string {
	return strings.Split(s, "/")
}

func globMatch(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	head := pattern[0]
	if head == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(segments); i++ {
			if globMatch(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	if !segmentMatch(head, segments[0]) {
		return false
	}
	return globMatch(pattern[1:], segments[1:])
}

// segmentMatch matches a single path segment against a pattern segment
// where '*' matches any run of characters (never '/', since segments are
// already split on it).
func segmentMatch(pattern, segment string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == segment
	}
	parts := strings.Split(pattern, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(segment[pos:], part)
		if idx == -1 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}
	if last := parts[len(parts)-1]; last != "" {
		return strings.HasSuffix(segment, last)
	}
	return true
}

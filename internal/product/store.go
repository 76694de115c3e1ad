package product

import (
	"strings"
	"sync"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

// Store is the in-memory ProductDeployment store, guarded by a single
// writer/many-reader RWMutex, extended with optimistic concurrency. Save
// does not check that an (environmentId, productGroupId) pair has at most
// one non-Removed aggregate; the orchestrator's DeployProduct checks that
// before it creates one.
type Store struct {
	mu   sync.RWMutex
	byID map[ids.ProductDeploymentID]*ProductDeployment
}

func NewStore() *Store {
	return &Store{byID: make(map[ids.ProductDeploymentID]*ProductDeployment)}
}

func isActive(status Status) bool {
	return status != StatusRemoved
}

// Save persists p. If an entry with the same ID already exists, its
// stored Version must match p.Version or the write is rejected with
// ConcurrencyConflictError; Version is incremented on success.
func (s *Store) Save(p *ProductDeployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[p.ID]
	if ok && existing.Version != p.Version {
		return apperrors.NewConcurrencyConflictError(string(p.ID), p.Version, existing.Version)
	}

	cp := *p
	cp.Version = p.Version + 1
	s.byID[p.ID] = &cp
	p.Version = cp.Version
	return nil
}

// Get returns a copy of the product deployment with the given ID.
func (s *Store) Get(id ids.ProductDeploymentID) (*ProductDeployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("productDeployment", string(id))
	}
	cp := *p
	return &cp, nil
}

// GetActiveForGroup returns the non-Removed aggregate for
// (environmentID, groupID), or NotFound if none exists. At most one is
// expected to satisfy this at any time (enforced by the orchestrator
// before InitiateDeployment).
func (s *Store) GetActiveForGroup(environmentID ids.EnvironmentID, groupID string) (*ProductDeployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.byID {
		if p.EnvironmentID == environmentID && strings.EqualFold(p.ProductGroupID, groupID) && isActive(p.Status) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("productDeployment", groupID)
}

// ListForEnvironment returns every aggregate (including Removed ones)
// scoped to environmentID.
func (s *Store) ListForEnvironment(environmentID ids.EnvironmentID) []ProductDeployment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ProductDeployment
	for _, p := range s.byID {
		if p.EnvironmentID == environmentID {
			out = append(out, *p)
		}
	}
	return out
}

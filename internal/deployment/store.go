package deployment

import (
	"sync"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

// Store is the in-memory Deployment store, guarded by a single
// writer/many-reader RWMutex and an optimistic-concurrency version
// check on every update.
type Store struct {
	mu          sync.RWMutex
	deployments map[ids.DeploymentID]*Deployment
}

func NewStore() *Store {
	return &Store{deployments: make(map[ids.DeploymentID]*Deployment)}
}

// Save persists d. If an entry with the same ID already exists, the
// stored Version must match d.Version or the write is rejected with
// ConcurrencyConflictError; Version is then incremented on success.
func (s *Store) Save(d *Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deployments[d.ID]
	if ok && existing.Version != d.Version {
		return apperrors.NewConcurrencyConflictError(string(d.ID), d.Version, existing.Version)
	}

	cp := *d
	cp.Version = d.Version + 1
	s.deployments[d.ID] = &cp
	d.Version = cp.Version
	return nil
}

// Get returns a copy of the deployment with the given ID.
func (s *Store) Get(id ids.DeploymentID) (*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deployments[id]
	if !ok {
		return nil, apperrors.NewDeploymentNotFoundError(string(id))
	}
	cp := *d
	return &cp, nil
}

// GetByStackName returns the non-Removed deployment for (environmentID,
// stackName), or NotFound if none exists.
func (s *Store) GetByStackName(environmentID ids.EnvironmentID, stackName string) (*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deployments {
		if d.EnvironmentID == environmentID && d.StackName == stackName && d.Status != StatusRemoved {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NewDeploymentNotFoundError(stackName)
}

// ListForEnvironment returns every non-Removed deployment scoped to
// environmentID.
func (s *Store) ListForEnvironment(environmentID ids.EnvironmentID) []*Deployment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Deployment
	for _, d := range s.deployments {
		if d.EnvironmentID == environmentID && d.Status != StatusRemoved {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out
}

package health

import (
	"sort"
	"sync"
	"time"

	"github.com/readystackgo/rsgo/internal/ids"
)

// Store is the append-only snapshot history, grouped by deployment.
type Store struct {
	mu      sync.RWMutex
	history map[ids.DeploymentID][]Snapshot
}

func NewStore() *Store {
	return &Store{history: make(map[ids.DeploymentID][]Snapshot)}
}

// Record appends snap to its deployment's history.
func (s *Store) Record(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[snap.DeploymentID] = append(s.history[snap.DeploymentID], snap)
}

// GetLatestForDeployment returns the most recent snapshot for a
// deployment, or ok=false if none exist.
func (s *Store) GetLatestForDeployment(deploymentID ids.DeploymentID) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.history[deploymentID]
	if len(list) == 0 {
		return Snapshot{}, false
	}
	return latestOf(list), true
}

// GetLatestForEnvironment returns one most-recent snapshot per distinct
// deploymentId within environmentID.
func (s *Store) GetLatestForEnvironment(environmentID ids.EnvironmentID) []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Snapshot
	for _, list := range s.history {
		if len(list) == 0 || list[0].EnvironmentID != environmentID {
			continue
		}
		out = append(out, latestOf(list))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeploymentID < out[j].DeploymentID })
	return out
}

// GetHistory returns up to limit most-recent snapshots for a deployment,
// ordered CapturedAtUTC desc.
func (s *Store) GetHistory(deploymentID ids.DeploymentID, limit int) []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := append([]Snapshot(nil), s.history[deploymentID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].CapturedAtUTC.After(list[j].CapturedAtUTC) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// RemoveOlderThan deletes every snapshot older than ttl, across all
// deployments.
func (s *Store) RemoveOlderThan(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	removed := 0
	for id, list := range s.history {
		kept := list[:0:0]
		for _, snap := range list {
			if snap.CapturedAtUTC.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, snap)
		}
		s.history[id] = kept
	}
	return removed
}

func latestOf(list []Snapshot) Snapshot {
	latest := list[0]
	for _, s := range list[1:] {
		if s.CapturedAtUTC.After(latest.CapturedAtUTC) {
			latest = s
		}
	}
	return latest
}

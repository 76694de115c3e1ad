// Package deployment implements the per-stack Deployment aggregate:
// status transitions, the pending-upgrade snapshot invariant, and an
// optimistic-concurrency store, built on a map+RWMutex instance store
// generalized into a state machine with explicit preconditions.
package deployment

import (
	"time"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

// Status is the Deployment aggregate's lifecycle state.
type Status string

const (
	StatusInstalling Status = "Installing"
	StatusUpgrading  Status = "Upgrading"
	StatusRunning    Status = "Running"
	StatusRemoved    Status = "Removed"
	StatusFailed     Status = "Failed"
)

// unknownImage is the persisted Image value for a service whose resolved
// image reference came back empty, so Services never carries a blank
// field a caller might mistake for "not yet recorded".
const unknownImage = "unknown"

// ServiceInstance is one running container belonging to a Deployment: the
// service it was planned from, its container identity, and its last known
// status. Image is never empty once stored; MarkAsRunning normalizes a
// blank image to unknownImage.
type ServiceInstance struct {
	Name          string
	ContainerID   string
	ContainerName string
	Image         string
	Status        string
}

// PendingUpgradeSnapshot captures a deployment's state at the moment an
// upgrade was staged, so a failed upgrade can be compared against or
// rolled back to. At most one exists per deployment.
type PendingUpgradeSnapshot struct {
	Description   string
	StackVersion  string
	Variables     map[string]string
	Services      []ServiceInstance
	CapturedAtUTC time.Time
}

// Deployment is the per-stack aggregate root.
type Deployment struct {
	ID                     ids.DeploymentID
	EnvironmentID          ids.EnvironmentID
	StackName              string
	StackVersion           string
	Status                 Status
	Variables              map[string]string
	HealthCheckConfigs     map[string]string
	Services               []ServiceInstance
	PendingUpgradeSnapshot *PendingUpgradeSnapshot
	FailureReason          string

	// Version is the optimistic-concurrency token: a Save succeeds only
	// if the stored token matches this value.
	Version int64
}

// Start begins a fresh installation (or "StartInstallation"): status is
// Installing, variables and health-check configs start blank.
func Start(environmentID ids.EnvironmentID, stackName, stackVersion string) *Deployment {
	return &Deployment{
		ID:                 ids.NewDeploymentID(),
		EnvironmentID:      environmentID,
		StackName:          stackName,
		StackVersion:       stackVersion,
		Status:             StatusInstalling,
		Variables:          map[string]string{},
		HealthCheckConfigs: map[string]string{},
	}
}

func (d *Deployment) ensureNotRemoved(op string) error {
	if d.Status == StatusRemoved {
		return apperrors.NewPreconditionViolatedError(op, string(d.Status), []string{
			string(StatusInstalling), string(StatusUpgrading), string(StatusRunning),
		})
	}
	return nil
}

// SetStackVersion updates the target stack version; legal unless Removed.
func (d *Deployment) SetStackVersion(version string) error {
	if err := d.ensureNotRemoved("SetStackVersion"); err != nil {
		return err
	}
	d.StackVersion = version
	return nil
}

// SetVariables replaces the deployment's resolved variable map; legal
// unless Removed.
func (d *Deployment) SetVariables(vars map[string]string) error {
	if err := d.ensureNotRemoved("SetVariables"); err != nil {
		return err
	}
	d.Variables = vars
	return nil
}

// SetHealthCheckConfigs replaces the deployment's health-check
// declarations; legal unless Removed.
func (d *Deployment) SetHealthCheckConfigs(configs map[string]string) error {
	if err := d.ensureNotRemoved("SetHealthCheckConfigs"); err != nil {
		return err
	}
	d.HealthCheckConfigs = configs
	return nil
}

// MarkAsRunning transitions Installing|Upgrading → Running, replacing the
// prior services snapshot with the freshly deployed set. A service with a
// blank Image persists as unknownImage rather than an empty string.
func (d *Deployment) MarkAsRunning(services []ServiceInstance) error {
	if d.Status != StatusInstalling && d.Status != StatusUpgrading {
		return apperrors.NewPreconditionViolatedError("MarkAsRunning", string(d.Status), []string{
			string(StatusInstalling), string(StatusUpgrading),
		})
	}
	d.Status = StatusRunning
	normalized := make([]ServiceInstance, len(services))
	for i, s := range services {
		if s.Image == "" {
			s.Image = unknownImage
		}
		normalized[i] = s
	}
	d.Services = normalized
	return nil
}

// CreateSnapshot captures {stackVersion, variables, services} into
// PendingUpgradeSnapshot; legal only from Running. At most one snapshot
// exists: a second call overwrites the first and resets CapturedAtUTC.
func (d *Deployment) CreateSnapshot(description string) error {
	if d.Status != StatusRunning {
		return apperrors.NewPreconditionViolatedError("CreateSnapshot", string(d.Status), []string{string(StatusRunning)})
	}
	d.PendingUpgradeSnapshot = &PendingUpgradeSnapshot{
		Description:   description,
		StackVersion:  d.StackVersion,
		Variables:     copyMap(d.Variables),
		Services:      append([]ServiceInstance(nil), d.Services...),
		CapturedAtUTC: time.Now().UTC(),
	}
	return nil
}

// ClearSnapshot discards the pending-upgrade snapshot, if any. Legal at
// any point.
func (d *Deployment) ClearSnapshot() {
	d.PendingUpgradeSnapshot = nil
}

// MarkAsRemoved transitions to Removed. Removed deployments are excluded
// by GetByStackName.
func (d *Deployment) MarkAsRemoved() {
	d.Status = StatusRemoved
}

// MarkAsFailed transitions to Failed, recording reason for later
// inspection by the product orchestrator's per-stack result.
func (d *Deployment) MarkAsFailed(reason string) {
	d.Status = StatusFailed
	d.FailureReason = reason
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

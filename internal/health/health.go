// Package health implements the append-only HealthSnapshot store with
// retention, using a map+RWMutex store shape generalized from a
// single-instance-per-key map to an append-only history per deployment.
package health

import (
	"time"

	"github.com/readystackgo/rsgo/internal/ids"
)

// ServiceStatus is one service's health within a snapshot.
type ServiceStatus string

const (
	ServiceHealthy   ServiceStatus = "Healthy"
	ServiceDegraded  ServiceStatus = "Degraded"
	ServiceUnhealthy ServiceStatus = "Unhealthy"
)

// Overall is the snapshot-wide aggregate health.
type Overall string

const (
	OverallHealthy   Overall = "Healthy"
	OverallDegraded  Overall = "Degraded"
	OverallUnhealthy Overall = "Unhealthy"
)

// OperationMode distinguishes a snapshot captured during a maintenance
// window from normal operation.
type OperationMode string

const (
	ModeNormal      OperationMode = "Normal"
	ModeMaintenance OperationMode = "Maintenance"
)

// ServiceHealth is one service's entry within a snapshot's self.services.
type ServiceHealth struct {
	Name   string
	Status ServiceStatus
}

// Snapshot is one captured HealthSnapshot.
type Snapshot struct {
	ID             ids.HealthSnapshotID
	OrganizationID string
	EnvironmentID  ids.EnvironmentID
	DeploymentID   ids.DeploymentID
	StackName      string
	OperationMode  OperationMode
	StackVersion   string
	CapturedAtUTC  time.Time
	Overall        Overall
	Services       []ServiceHealth
	TotalCount     int
}

// ComputeOverall applies I9: Unhealthy if any service is Unhealthy, else
// Degraded if any is Degraded, else Healthy.
func ComputeOverall(services []ServiceHealth) Overall {
	degraded := false
	for _, s := range services {
		if s.Status == ServiceUnhealthy {
			return OverallUnhealthy
		}
		if s.Status == ServiceDegraded {
			degraded = true
		}
	}
	if degraded {
		return OverallDegraded
	}
	return OverallHealthy
}

// NewSnapshot builds a Snapshot with Overall and TotalCount derived from
// services.
func NewSnapshot(orgID string, envID ids.EnvironmentID, deploymentID ids.DeploymentID, stackName, stackVersion string, mode OperationMode, services []ServiceHealth) Snapshot {
	return Snapshot{
		ID:             ids.NewHealthSnapshotID(),
		OrganizationID: orgID,
		EnvironmentID:  envID,
		DeploymentID:   deploymentID,
		StackName:      stackName,
		OperationMode:  mode,
		StackVersion:   stackVersion,
		CapturedAtUTC:  time.Now().UTC(),
		Overall:        ComputeOverall(services),
		Services:       append([]ServiceHealth(nil), services...),
		TotalCount:     len(services),
	}
}

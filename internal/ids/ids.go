// Package ids defines the opaque 128-bit identifier types shared across
// the data model. Each entity gets a dedicated type so the compiler
// rejects mixing, for example, a DeploymentID where a ProductID is
// expected.
package ids

import "github.com/google/uuid"

// DeploymentID identifies a Deployment aggregate.
type DeploymentID string

// ProductDeploymentID identifies a ProductDeployment aggregate.
type ProductDeploymentID string

// ProductID identifies a ProductDefinition's catalog group.
type ProductID string

// EnvironmentID identifies a target container environment.
type EnvironmentID string

// RegistryID identifies a stored registry credential entry.
type RegistryID string

// HealthSnapshotID identifies a HealthSnapshot record.
type HealthSnapshotID string

// New generates a new opaque identifier in textual form.
func New() string {
	return uuid.NewString()
}

func NewDeploymentID() DeploymentID               { return DeploymentID(New()) }
func NewProductDeploymentID() ProductDeploymentID { return ProductDeploymentID(New()) }
func NewRegistryID() RegistryID                   { return RegistryID(New()) }
func NewHealthSnapshotID() HealthSnapshotID       { return HealthSnapshotID(New()) }
func NewEnvironmentID() EnvironmentID             { return EnvironmentID(New()) }
func NewProductID() ProductID                     { return ProductID(New()) }

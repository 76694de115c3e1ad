// Package product implements the multi-stack ProductDeployment
// aggregate, built around a validate->create->callback->register flow
// with phase-history accumulation, generalized from a single
// service-class instance to a set of ordered StackSub entries with
// derived overall status.
package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

// Status is the ProductDeployment aggregate's lifecycle state.
type Status string

const (
	StatusDeploying        Status = "Deploying"
	StatusRunning          Status = "Running"
	StatusPartiallyRunning Status = "PartiallyRunning"
	StatusUpgrading        Status = "Upgrading"
	StatusRemoving         Status = "Removing"
	StatusRemoved          Status = "Removed"
	StatusFailed           Status = "Failed"
)

// StackStatus is one StackSub's individual lifecycle state.
type StackStatus string

const (
	StackPending StackStatus = "Pending"
	StackRunning StackStatus = "Running"
	StackFailed  StackStatus = "Failed"
	StackRemoved StackStatus = "Removed"
)

// PhaseEntry is one line of the aggregate's append-only activity log.
type PhaseEntry struct {
	Timestamp time.Time
	Message   string
	Level     string // "info" | "warn" | "error"
}

// StackConfig is caller input describing one stack to materialize into a
// StackSub at InitiateDeployment/InitiateUpgrade time.
type StackConfig struct {
	StackName        string
	StackDisplayName string
	StackID          string
	Order            int
	ServiceCount     int
	Variables        map[string]string
}

// StackSub is one product's stack subscription: its place in the
// deploy/remove order, its resolved variables, and the Deployment it
// currently owns (if started).
type StackSub struct {
	StackName           string
	StackDisplayName    string
	StackID             string
	Order               int
	ServiceCount        int
	Variables           map[string]string
	Status              StackStatus
	DeploymentID        *ids.DeploymentID
	DeploymentStackName string
	StartedAt           *time.Time
	CompletedAt         *time.Time
	ErrorMessage        string
	IsNewInUpgrade      bool
}

// ProductDeployment is the multi-stack aggregate root.
type ProductDeployment struct {
	ID              ids.ProductDeploymentID
	EnvironmentID   ids.EnvironmentID
	ProductGroupID  string
	ProductID       string
	ProductName     string
	ProductVersion  string
	PreviousVersion string
	UpgradeCount    int
	CreatedAt       time.Time
	CompletedAt     *time.Time
	ErrorMessage    string
	ContinueOnError bool
	SharedVariables map[string]string
	PhaseHistory    []PhaseEntry
	Stacks          []StackSub
	Status          Status

	// Version is the optimistic-concurrency token.
	Version int64
}

func copyStrMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func materialize(configs []StackConfig, existingByDisplayName map[string]bool) []StackSub {
	stacks := make([]StackSub, len(configs))
	for i, c := range configs {
		isNew := existingByDisplayName != nil && !existingByDisplayName[strings.ToLower(c.StackDisplayName)]
		stacks[i] = StackSub{
			StackName:        c.StackName,
			StackDisplayName: c.StackDisplayName,
			StackID:          c.StackID,
			Order:            c.Order,
			ServiceCount:     c.ServiceCount,
			Variables:        copyStrMap(c.Variables),
			Status:           StackPending,
			IsNewInUpgrade:   isNew,
		}
	}
	return stacks
}

// InitiateDeployment creates a fresh aggregate in Deploying status with
// stacks materialized, in order, from configs.
func InitiateDeployment(environmentID ids.EnvironmentID, groupID, productID, productName, productVersion string, configs []StackConfig, sharedVars map[string]string, continueOnError bool) *ProductDeployment {
	now := time.Now().UTC()
	return &ProductDeployment{
		ID:              ids.NewProductDeploymentID(),
		EnvironmentID:   environmentID,
		ProductGroupID:  groupID,
		ProductID:       productID,
		ProductName:     productName,
		ProductVersion:  productVersion,
		UpgradeCount:    0,
		CreatedAt:       now,
		ContinueOnError: continueOnError,
		SharedVariables: copyStrMap(sharedVars),
		PhaseHistory:    []PhaseEntry{{Timestamp: now, Message: "Deployment initiated", Level: "info"}},
		Stacks:          materialize(configs, nil),
		Status:          StatusDeploying,
	}
}

// InitiateUpgrade creates a NEW aggregate targeting productVersion,
// carrying forward existing's upgrade lineage. Legal only when existing is
// Running or PartiallyRunning. Stacks absent from existing by
// case-insensitive displayName match are flagged IsNewInUpgrade.
func InitiateUpgrade(existing *ProductDeployment, productID, productName, productVersion string, configs []StackConfig, sharedVars map[string]string) (*ProductDeployment, error) {
	if existing.Status != StatusRunning && existing.Status != StatusPartiallyRunning {
		return nil, apperrors.NewPreconditionViolatedError("InitiateUpgrade", string(existing.Status), []string{
			string(StatusRunning), string(StatusPartiallyRunning),
		})
	}

	existingNames := make(map[string]bool, len(existing.Stacks))
	for _, s := range existing.Stacks {
		existingNames[strings.ToLower(s.StackDisplayName)] = true
	}

	now := time.Now().UTC()
	return &ProductDeployment{
		ID:              ids.NewProductDeploymentID(),
		EnvironmentID:   existing.EnvironmentID,
		ProductGroupID:  existing.ProductGroupID,
		ProductID:       productID,
		ProductName:     productName,
		ProductVersion:  productVersion,
		PreviousVersion: existing.ProductVersion,
		UpgradeCount:    existing.UpgradeCount + 1,
		CreatedAt:       now,
		ContinueOnError: existing.ContinueOnError,
		SharedVariables: copyStrMap(sharedVars),
		PhaseHistory:    []PhaseEntry{{Timestamp: now, Message: fmt.Sprintf("Upgrade initiated to %s", productVersion), Level: "info"}},
		Stacks:          materialize(configs, existingNames),
		Status:          StatusUpgrading,
	}, nil
}

func (p *ProductDeployment) appendPhase(message, level string) {
	p.PhaseHistory = append(p.PhaseHistory, PhaseEntry{Timestamp: time.Now().UTC(), Message: message, Level: level})
}

func (p *ProductDeployment) findStack(stackName string) (int, error) {
	for i := range p.Stacks {
		if p.Stacks[i].StackName == stackName {
			return i, nil
		}
	}
	return -1, apperrors.NewNotFoundError("stack", stackName)
}

// StartStack transitions stackName's StackSub to Running, recording
// startedAt and its deployment identity.
func (p *ProductDeployment) StartStack(stackName string, deploymentID ids.DeploymentID, deploymentStackName string) error {
	i, err := p.findStack(stackName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Stacks[i].Status = StackRunning
	p.Stacks[i].DeploymentID = &deploymentID
	p.Stacks[i].DeploymentStackName = deploymentStackName
	p.Stacks[i].StartedAt = &now
	p.appendPhase(fmt.Sprintf("Stack %q started", p.Stacks[i].StackDisplayName), "info")
	p.recomputeStatus()
	return nil
}

// CompleteStack marks stackName's StackSub Running->Running (completed),
// stamping completedAt.
func (p *ProductDeployment) CompleteStack(stackName string) error {
	i, err := p.findStack(stackName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Stacks[i].Status = StackRunning
	p.Stacks[i].CompletedAt = &now
	p.appendPhase(fmt.Sprintf("Stack %q completed", p.Stacks[i].StackDisplayName), "info")
	p.recomputeStatus()
	return nil
}

// FailStack marks stackName's StackSub Failed, recording reason.
func (p *ProductDeployment) FailStack(stackName, reason string) error {
	i, err := p.findStack(stackName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Stacks[i].Status = StackFailed
	p.Stacks[i].ErrorMessage = reason
	p.Stacks[i].CompletedAt = &now
	p.appendPhase(fmt.Sprintf("Stack %q failed: %s", p.Stacks[i].StackDisplayName, reason), "error")
	p.recomputeStatus()
	return nil
}

// MarkAsPartiallyRunning explicitly records the PartiallyRunning
// transition along with reason, for callers that want the phase-history
// entry even when recomputeStatus would already have derived it.
func (p *ProductDeployment) MarkAsPartiallyRunning(reason string) {
	p.Status = StatusPartiallyRunning
	p.appendPhase(fmt.Sprintf("Partially running: %s", reason), "warn")
}

// recomputeStatus derives Status from the current StackSub set.
// Removal-in-progress statuses are left untouched here; RemoveStack's
// per-stack loop manages the Removing->Removed transition directly.
func (p *ProductDeployment) recomputeStatus() {
	if p.Status == StatusRemoving || p.Status == StatusRemoved {
		return
	}

	total := len(p.Stacks)
	if total == 0 {
		return
	}
	var running, failed int
	for _, s := range p.Stacks {
		switch s.Status {
		case StackRunning:
			running++
		case StackFailed:
			failed++
		}
	}

	switch {
	case running == total:
		p.Status = StatusRunning
		now := time.Now().UTC()
		p.CompletedAt = &now
	case failed == total:
		p.Status = StatusFailed
		now := time.Now().UTC()
		p.CompletedAt = &now
	case running > 0 && failed > 0:
		p.Status = StatusPartiallyRunning
	}
}

// StartRemoval transitions to Removing; legal from Running,
// PartiallyRunning, or Failed.
func (p *ProductDeployment) StartRemoval() error {
	if p.Status != StatusRunning && p.Status != StatusPartiallyRunning && p.Status != StatusFailed {
		return apperrors.NewPreconditionViolatedError("StartRemoval", string(p.Status), []string{
			string(StatusRunning), string(StatusPartiallyRunning), string(StatusFailed),
		})
	}
	p.Status = StatusRemoving
	p.appendPhase("Removal started", "info")
	return nil
}

// RemoveStackEntry marks stackName's StackSub Removed. Once every stack is
// Removed, the aggregate itself transitions to Removed.
func (p *ProductDeployment) RemoveStackEntry(stackName string) error {
	i, err := p.findStack(stackName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Stacks[i].Status = StackRemoved
	p.Stacks[i].CompletedAt = &now
	p.appendPhase(fmt.Sprintf("Stack %q removed", p.Stacks[i].StackDisplayName), "info")

	allRemoved := true
	for _, s := range p.Stacks {
		if s.Status != StackRemoved {
			allRemoved = false
			break
		}
	}
	if allRemoved {
		p.Status = StatusRemoved
		p.CompletedAt = &now
		p.appendPhase("Product removed", "info")
	}
	return nil
}

// DeployOrder returns stack indices in ascending Order, for deploy/upgrade
// iteration.
func (p *ProductDeployment) DeployOrder() []int {
	return orderIndices(p.Stacks, true)
}

// RemovalOrder returns stack indices in descending Order, for removal
// iteration.
func (p *ProductDeployment) RemovalOrder() []int {
	return orderIndices(p.Stacks, false)
}

func orderIndices(stacks []StackSub, ascending bool) []int {
	idx := make([]int, len(stacks))
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			a, b := stacks[idx[i]].Order, stacks[idx[j]].Order
			if (ascending && a > b) || (!ascending && a < b) {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
	}
	return idx
}

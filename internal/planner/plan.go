// Package planner compiles a resolved manifest stack and its final
// variable map into an ordered DeploymentPlan, using the dependency
// package's topological sort for step ordering.
package planner

import (
	"fmt"
	"sort"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/dependency"
	"github.com/readystackgo/rsgo/internal/manifest"
	"github.com/readystackgo/rsgo/internal/naming"
	"github.com/readystackgo/rsgo/internal/variables"
)

// Lifecycle distinguishes ordinary long-running services from init
// containers, which must complete before their dependents start.
type Lifecycle string

const (
	LifecycleService Lifecycle = "service"
	LifecycleInit    Lifecycle = "init"
)

// Step is one container to create as part of a deployment, fully resolved
// (all ${VAR} placeholders substituted, names sanitized).
type Step struct {
	ServiceName   string            `json:"serviceName"`
	Order         int               `json:"order"`
	Lifecycle     Lifecycle         `json:"lifecycle"`
	Image         naming.ImageRef   `json:"image"`
	ContainerName string            `json:"containerName"`
	Env           map[string]string `json:"env"`
	Ports         []string          `json:"ports"`
	Volumes       []string          `json:"volumes"`
	Networks      []string          `json:"networks"`
	Command       []string          `json:"command,omitempty"`
	DependsOn     []string          `json:"dependsOn,omitempty"`
}

// DeploymentPlan is the fully resolved, ready-to-execute result of
// compiling one stack. Steps are ordered such that every
// dependency precedes its dependents; the engine additionally groups them
// into pull/start phases but does not need to reorder them.
type DeploymentPlan struct {
	StackName string `json:"stackName"`
	Network   string `json:"network"`
	Steps     []Step `json:"steps"`
}

// Compile resolves stackName's services against vars (already merged via
// variables.Merge) into a DeploymentPlan. Every ${VAR}/${VAR:-default}
// placeholder in image/env/ports/volumes/command is substituted before the
// plan is returned, so the engine never interpolates again.
func Compile(m manifest.Manifest, stackName string, vars map[string]string) (DeploymentPlan, error) {
	services := m.ServicesFor(stackName)
	if len(services) == 0 {
		return DeploymentPlan{}, apperrors.NewValidationError("stack", fmt.Sprintf("stack %q has no services to deploy", stackName))
	}

	graph := dependency.New()
	for _, name := range m.ServicesOrderFor(stackName) {
		svc := services[name]
		graph.AddNode(dependency.Node{
			ID:        dependency.NodeID(name),
			Kind:      dependency.KindService,
			DependsOn: toNodeIDs(svc.DependsOn),
		})
	}

	order, err := graph.TopoSort()
	if err != nil {
		return DeploymentPlan{}, err
	}

	network := naming.NetworkName(stackName)
	steps := make([]Step, 0, len(order))
	for i, id := range order {
		name := string(id)
		svc := services[name]

		lifecycle := LifecycleService
		if svc.Init {
			lifecycle = LifecycleInit
		}

		networks := svc.Networks
		if len(networks) == 0 {
			networks = []string{network}
		} else {
			networks = variables.SubstituteSlice(networks, vars)
		}

		steps = append(steps, Step{
			ServiceName:   name,
			Order:         i,
			Lifecycle:     lifecycle,
			Image:         naming.ParseImageRef(variables.Substitute(svc.Image, vars)),
			ContainerName: naming.ContainerName(stackName, name),
			Env:           variables.SubstituteMap(svc.Env, vars),
			Ports:         variables.SubstituteSlice(svc.Ports, vars),
			Volumes:       variables.SubstituteSlice(svc.Volumes, vars),
			Networks:      networks,
			Command:       variables.SubstituteSlice(svc.Command, vars),
			DependsOn:     append([]string(nil), svc.DependsOn...),
		})
	}

	return DeploymentPlan{StackName: stackName, Network: network, Steps: steps}, nil
}

// ReverseOrder returns plan's steps in reverse topological order, for
// stack removal (dependents stopped before their dependencies).
func (p DeploymentPlan) ReverseOrder() []Step {
	out := make([]Step, len(p.Steps))
	copy(out, p.Steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order > out[j].Order })
	return out
}

// InitSteps returns the steps with LifecycleInit, in plan order. The
// engine must wait for each to exit successfully before starting any step
// that depends on it.
func (p DeploymentPlan) InitSteps() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Lifecycle == LifecycleInit {
			out = append(out, s)
		}
	}
	return out
}

func toNodeIDs(names []string) []dependency.NodeID {
	if names == nil {
		return nil
	}
	ids := make([]dependency.NodeID, len(names))
	for i, n := range names {
		ids[i] = dependency.NodeID(n)
	}
	return ids
}

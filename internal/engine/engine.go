// Package engine implements the two-phase (pull-all-then-start-all)
// deployment engine: the hardest subsystem, built against the real
// Docker Go SDK and extended with registry credential resolution,
// weighted progress reporting, and init-container gating.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
	"github.com/readystackgo/rsgo/internal/metrics"
	"github.com/readystackgo/rsgo/internal/naming"
	"github.com/readystackgo/rsgo/internal/planner"
	"github.com/readystackgo/rsgo/internal/registryauth"
)

// maxConcurrentPulls bounds how many image pulls run at once during
// PhasePullingImages; unbounded fan-out would let one large deployment
// saturate the daemon's own pull worker pool.
const maxConcurrentPulls = 4

// Phase identifies one of the four weighted progress bands.
type Phase string

const (
	PhaseResolving              Phase = "Resolving"
	PhasePullingImages          Phase = "PullingImages"
	PhaseInitializingContainers Phase = "InitializingContainers"
	PhaseStartingServices       Phase = "StartingServices"
)

var phaseRange = map[Phase][2]int{
	PhaseResolving:              {0, 10},
	PhasePullingImages:          {10, 70},
	PhaseInitializingContainers: {70, 80},
	PhaseStartingServices:       {80, 100},
}

// ProgressUpdate is one invocation of the caller's progress callback.
type ProgressUpdate struct {
	Phase                   Phase
	Message                 string
	OverallPercent          int
	CurrentService          string
	TotalServices           int
	CompletedServices       int
	TotalInitContainers     int
	CompletedInitContainers int
}

// ProgressFunc receives engine progress updates; may be nil.
type ProgressFunc func(ProgressUpdate)

// DeployedService records one successfully started (or, for an init
// container, successfully exited) container's identity, so callers can
// persist more than just its service name.
type DeployedService struct {
	Name          string
	ContainerID   string
	ContainerName string
	Image         string
	Status        string
}

// Result is Execute's outcome.
type Result struct {
	Success  bool
	Services []DeployedService
	Warnings []string
	Errors   []string
}

// RegistryOrg resolves the organization scope for registry lookups; the
// engine does not know about organizations itself, it only needs a way to
// find matching credentials for an image reference.
type RegistryOrg = ids.EnvironmentID

// Engine executes deployment plans against a Runtime.
type Engine struct {
	runtime    Runtime
	registries *registryauth.Store

	// Metrics, when set, records pull-failure counts. Nil by default so
	// Engine works without an observability backend wired in.
	Metrics *metrics.Registry
}

// New constructs an Engine bound to a runtime and the registry store used
// to resolve pull credentials.
func New(runtime Runtime, registries *registryauth.Store) *Engine {
	return &Engine{runtime: runtime, registries: registries}
}

func report(cb ProgressFunc, phase Phase, message string, completed, total int, service string, initTotal, initCompleted int) {
	if cb == nil {
		return
	}
	rng := phaseRange[phase]
	percent := rng[0]
	if total > 0 {
		percent = rng[0] + (rng[1]-rng[0])*completed/total
	} else {
		percent = rng[1]
	}
	cb(ProgressUpdate{
		Phase:                   phase,
		Message:                 message,
		OverallPercent:          percent,
		CurrentService:          service,
		TotalServices:           total,
		CompletedServices:       completed,
		TotalInitContainers:     initTotal,
		CompletedInitContainers: initCompleted,
	})
}

// Execute runs plan's two phases: pull every image, then create and start
// every container in topological order, gating on init containers.
// orgID scopes registry credential lookups; deploymentID is stamped onto
// every created container's rsgo.deployment label.
func (e *Engine) Execute(ctx context.Context, orgID ids.EnvironmentID, deploymentID ids.DeploymentID, plan planner.DeploymentPlan, progress ProgressFunc) (Result, error) {
	result := Result{Success: true}
	totalServices := len(plan.Steps)
	initSteps := plan.InitSteps()
	totalInit := len(initSteps)

	report(progress, PhaseResolving, "Resolving deployment plan", 0, 1, "", totalInit, 0)
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Errors: []string{"deployment cancelled before start"}}, apperrors.NewCancelledError("execute")
	}

	// Phase A: pull every image first, up to maxConcurrentPulls at a time,
	// and abort before any container exists if any pull fails outright.
	warnings := make([]string, totalServices)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPulls)
	var completedPulls int64

	for i, step := range plan.Steps {
		step := step
		g.Go(func() error {
			ref := step.Image.String()
			auth := e.resolveAuth(orgID, step.Image)

			pullErr := e.runtime.PullImage(gctx, ref, auth)
			n := atomic.AddInt64(&completedPulls, 1)
			if pullErr == nil {
				report(progress, PhasePullingImages, fmt.Sprintf("Pulled %s", ref), int(n), totalServices, step.ServiceName, totalInit, 0)
				return nil
			}

			exists, existsErr := e.runtime.ImageExistsLocally(gctx, ref)
			if existsErr == nil && exists {
				warnings[i] = fmt.Sprintf("%s could not be pulled; using existing local image", ref)
				report(progress, PhasePullingImages, fmt.Sprintf("Pulled %s", ref), int(n), totalServices, step.ServiceName, totalInit, 0)
				return nil
			}

			authHint := !auth.empty()
			if e.Metrics != nil {
				e.Metrics.ObservePullFailure(authHint)
			}
			return apperrors.NewPullFailureError(ref, pullErr, authHint)
		})
	}

	if err := g.Wait(); err != nil {
		return Result{Success: false, Errors: append(result.Errors, err.Error())}, err
	}
	for _, w := range warnings {
		if w != "" {
			result.Warnings = append(result.Warnings, w)
		}
	}
	report(progress, PhasePullingImages, "All images pulled", totalServices, totalServices, "", totalInit, 0)

	// Phase B: create and start containers in topological order.
	if err := e.runtime.EnsureNetwork(ctx, plan.Network); err != nil {
		failure := apperrors.NewContainerRuntimeError("ensure-network", plan.Network, err)
		return Result{Success: false, Errors: []string{failure.Error()}}, failure
	}

	completedInit := 0
	failed := make(map[string]bool, totalServices)
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, "deployment cancelled during container start")
			return result, apperrors.NewCancelledError("execute")
		}

		if dependsOnFailed(step.DependsOn, failed) {
			failed[step.ServiceName] = true
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("%q skipped: a dependency failed to start", step.ServiceName))
			continue
		}

		phase := PhaseStartingServices
		if step.Lifecycle == planner.LifecycleInit {
			phase = PhaseInitializingContainers
		}
		report(progress, phase, fmt.Sprintf("Starting %s", step.ServiceName), i, totalServices, step.ServiceName, totalInit, completedInit)

		if err := e.runtime.RemoveContainerIfExists(ctx, step.ContainerName); err != nil {
			result.Success = false
			failed[step.ServiceName] = true
			result.Errors = append(result.Errors, apperrors.NewContainerRuntimeError("remove-existing", step.ContainerName, err).Error())
			continue
		}

		labels := map[string]string{
			"rsgo.stack":      plan.StackName,
			"rsgo.context":    step.ServiceName,
			"rsgo.deployment": string(deploymentID),
		}

		containerID, err := e.runtime.CreateAndStart(ctx, ContainerSpec{
			Name:     step.ContainerName,
			Image:    step.Image.String(),
			Env:      step.Env,
			Ports:    step.Ports,
			Volumes:  step.Volumes,
			Networks: step.Networks,
			Command:  step.Command,
			Labels:   labels,
		})
		if err != nil {
			result.Success = false
			failed[step.ServiceName] = true
			result.Errors = append(result.Errors, apperrors.NewContainerRuntimeError("create", step.ContainerName, err).Error())
			continue
		}

		if step.Lifecycle == planner.LifecycleInit {
			exitCode, waitErr := e.runtime.WaitForExit(ctx, containerID)
			if waitErr != nil {
				result.Success = false
				failed[step.ServiceName] = true
				result.Errors = append(result.Errors, apperrors.NewContainerRuntimeError("wait", step.ContainerName, waitErr).Error())
				continue
			}
			if exitCode != 0 {
				result.Success = false
				failed[step.ServiceName] = true
				result.Errors = append(result.Errors, fmt.Sprintf("init container %q exited with code %d", step.ServiceName, exitCode))
				continue
			}
			completedInit++
			report(progress, PhaseInitializingContainers, fmt.Sprintf("%s completed", step.ServiceName), i+1, totalServices, step.ServiceName, totalInit, completedInit)
		}

		status := "running"
		if step.Lifecycle == planner.LifecycleInit {
			status = "exited"
		}
		result.Services = append(result.Services, DeployedService{
			Name:          step.ServiceName,
			ContainerID:   containerID,
			ContainerName: step.ContainerName,
			Image:         step.Image.String(),
			Status:        status,
		})
	}

	report(progress, PhaseStartingServices, "Deployment finished", totalServices, totalServices, "", totalInit, completedInit)
	return result, nil
}

func (e *Engine) resolveAuth(orgID ids.EnvironmentID, ref naming.ImageRef) RegistryAuth {
	if e.registries == nil {
		return RegistryAuth{}
	}
	reg, ok := e.registries.FindMatching(string(orgID), ref.String())
	if !ok {
		return RegistryAuth{}
	}
	return RegistryAuth{Username: reg.Username, Password: reg.Password}
}

// dependsOnFailed reports whether any of deps is already in failed,
// propagating a failure downstream so dependents of a failed step are
// skipped rather than started against a broken dependency.
func dependsOnFailed(deps []string, failed map[string]bool) bool {
	for _, d := range deps {
		if failed[d] {
			return true
		}
	}
	return false
}

// RemoveStack enumerates containers labeled rsgo.stack == stackName and
// removes them in reverse topological order, recording any
// per-container failure but continuing, then reclaims the stack's network
// if it is left empty.
func (e *Engine) RemoveStack(ctx context.Context, plan planner.DeploymentPlan, progress ProgressFunc) (Result, error) {
	result := Result{Success: true}

	found, err := e.runtime.ListByLabel(ctx, "rsgo.stack", plan.StackName)
	if err != nil {
		failure := apperrors.NewContainerRuntimeError("list", plan.StackName, err)
		return Result{Success: false, Errors: []string{failure.Error()}}, failure
	}
	byName := make(map[string]string, len(found))
	for _, c := range found {
		byName[c.Name] = c.ID
	}

	reverse := plan.ReverseOrder()
	total := len(reverse)
	for i, step := range reverse {
		report(progress, PhaseStartingServices, fmt.Sprintf("Removing %s", step.ServiceName), i, total, step.ServiceName, 0, 0)

		containerID, ok := byName[step.ContainerName]
		if !ok {
			continue // already gone
		}
		if err := e.runtime.RemoveContainer(ctx, containerID, true); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, apperrors.NewContainerRuntimeError("remove", step.ContainerName, err).Error())
			continue
		}
	}

	if empty, err := e.runtime.NetworkIsEmpty(ctx, plan.Network); err == nil && empty {
		_ = e.runtime.RemoveNetwork(ctx, plan.Network)
	}

	return result, nil
}

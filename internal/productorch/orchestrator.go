// Package productorch implements the Product Orchestrator:
// DeployProduct, UpgradeProduct, RemoveProduct, and CheckProductUpgrade,
// built around a validate->create->callback->register->rollback-on-error
// flow extended to sequence multiple stacks with crash-safe per-stack
// checkpointing instead of a single service-class instance.
package productorch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/catalog"
	"github.com/readystackgo/rsgo/internal/deployment"
	"github.com/readystackgo/rsgo/internal/engine"
	"github.com/readystackgo/rsgo/internal/ids"
	"github.com/readystackgo/rsgo/internal/metrics"
	"github.com/readystackgo/rsgo/internal/notify"
	"github.com/readystackgo/rsgo/internal/planner"
	"github.com/readystackgo/rsgo/internal/product"
	"github.com/readystackgo/rsgo/internal/variables"
)

// StackResult is one stack's outcome, surfaced in the orchestrator
// response.
type StackResult struct {
	Name           string
	Success        bool
	DeploymentID   *ids.DeploymentID
	IsNewInUpgrade bool
	ErrorMessage   string
}

// Response is the orchestrator-level reply shape.
type Response struct {
	Success      bool
	Status       product.Status
	Message      string
	StackResults []StackResult
	SessionID    string
	Warnings     []string
}

// Orchestrator coordinates ProductDeployment aggregates against the
// catalog, the per-stack Deployment store, and the deployment engine.
type Orchestrator struct {
	Catalog     *catalog.Catalog
	Products    *product.Store
	Deployments *deployment.Store
	Engine      *engine.Engine
	Notifier    *notify.Notifier

	// Metrics, when set, records operation duration and concurrency
	// conflicts. Nil by default so Orchestrator works without an
	// observability backend wired in.
	Metrics *metrics.Registry
}

func New(cat *catalog.Catalog, products *product.Store, deployments *deployment.Store, eng *engine.Engine, notifier *notify.Notifier) *Orchestrator {
	return &Orchestrator{Catalog: cat, Products: products, Deployments: deployments, Engine: eng, Notifier: notifier}
}

// saveProduct saves agg, observing a concurrency-conflict metric on the
// specific failure mode the optimistic-versioning store surfaces for it.
func (o *Orchestrator) saveProduct(agg *product.ProductDeployment) error {
	err := o.Products.Save(agg)
	if err != nil && o.Metrics != nil && apperrors.IsConcurrencyConflict(err) {
		o.Metrics.ObserveConcurrencyConflict("product")
	}
	return err
}

// observeDuration records operation's wall-clock duration and outcome,
// read from resp/err after the deferring function has returned. A no-op
// when Metrics is nil.
func (o *Orchestrator) observeDuration(operation string, start time.Time, resp *Response, err *error) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.ObserveDeployment(operation, *err == nil && resp.Success, time.Since(start).Seconds())
}

// toServiceInstances adapts the engine's per-container results into the
// Deployment aggregate's own service-instance shape.
func toServiceInstances(services []engine.DeployedService) []deployment.ServiceInstance {
	out := make([]deployment.ServiceInstance, len(services))
	for i, s := range services {
		out[i] = deployment.ServiceInstance{
			Name:          s.Name,
			ContainerID:   s.ContainerID,
			ContainerName: s.ContainerName,
			Image:         s.Image,
			Status:        s.Status,
		}
	}
	return out
}

func stackConfigsFrom(def *catalog.ProductDefinition, perStackVars map[string]map[string]string) []product.StackConfig {
	stacks := append([]catalog.StackConfig(nil), def.Stacks...)
	sort.SliceStable(stacks, func(i, j int) bool { return stacks[i].Order < stacks[j].Order })
	configs := make([]product.StackConfig, len(stacks))
	for i, sc := range stacks {
		services := def.Manifest.ServicesFor(sc.ManifestPath)
		configs[i] = product.StackConfig{
			StackName:        sc.ManifestPath,
			StackDisplayName: sc.DisplayName,
			StackID:          sc.ManifestPath,
			Order:            sc.Order,
			ServiceCount:     len(services),
			Variables:        perStackVars[sc.DisplayName],
		}
	}
	return configs
}

// DeployProduct runs the full deploy flow: validate the product
// definition, plan and execute each stack in declared order, and
// register the resulting deployment.
func (o *Orchestrator) DeployProduct(ctx context.Context, environmentID ids.EnvironmentID, groupID, productVersion string, sharedVars map[string]string, perStackVars map[string]map[string]string, continueOnError bool, sessionID string, utcTimestampMillis int64) (resp Response, err error) {
	defer o.observeDuration("deploy", time.Now(), &resp, &err)

	def, err := o.Catalog.Get(groupID, productVersion)
	if err != nil {
		return Response{}, err
	}

	if _, err := o.Products.GetActiveForGroup(environmentID, groupID); err == nil {
		return Response{}, apperrors.NewPreconditionViolatedError("DeployProduct", "active deployment exists", []string{"no active deployment"})
	}

	sid := notify.SessionID(sessionID, "deploy", def.Name, utcTimestampMillis)
	configs := stackConfigsFrom(def, perStackVars)
	agg := product.InitiateDeployment(environmentID, groupID, def.ProductID, def.Name, def.ProductVersion, configs, sharedVars, continueOnError)
	if err := o.saveProduct(agg); err != nil {
		return Response{}, err
	}
	o.Notifier.Progress(sid, "Starting deployment", 0)

	results := o.runStacks(ctx, agg, def, nil, sid)

	return o.finish(agg, results, sid), nil
}

// runStacks iterates agg's stacks in deploy order, merging variables per
// the four-tier precedence, compiling, and executing each via the engine.
// priorVars supplies the upgrade-only "existing value" tier, keyed by
// stackDisplayName (case-insensitive); nil for a fresh deployment.
func (o *Orchestrator) runStacks(ctx context.Context, agg *product.ProductDeployment, def *catalog.ProductDefinition, priorVars map[string]map[string]string, sid string) []StackResult {
	var results []StackResult

	for _, idx := range agg.DeployOrder() {
		sub := agg.Stacks[idx]
		if sub.Status == product.StackRemoved {
			continue
		}

		decls := def.Manifest.ExtractStackVariables(sub.StackName)
		existing := priorVars[strings.ToLower(sub.StackDisplayName)]
		merged := variables.Merge(variables.Tiers{
			DeclaredDefault: variables.DefaultsFor(decls),
			ExistingValue:   existing,
			Shared:          agg.SharedVariables,
			PerStack:        sub.Variables,
		})

		if missing := variables.MissingRequired(decls, merged); len(missing) > 0 {
			reason := fmt.Sprintf("missing required variables: %s", strings.Join(missing, ", "))
			_ = agg.FailStack(sub.StackName, reason)
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, IsNewInUpgrade: sub.IsNewInUpgrade, ErrorMessage: reason})
			if !agg.ContinueOnError {
				break
			}
			continue
		}

		plan, err := planner.Compile(def.Manifest, sub.StackName, merged)
		if err != nil {
			_ = agg.FailStack(sub.StackName, err.Error())
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, IsNewInUpgrade: sub.IsNewInUpgrade, ErrorMessage: err.Error()})
			if !agg.ContinueOnError {
				break
			}
			continue
		}

		deploymentStackName := sub.DeploymentStackName
		if deploymentStackName == "" {
			deploymentStackName = sub.StackName
		}

		dep := deployment.Start(agg.EnvironmentID, deploymentStackName, def.ProductVersion)
		_ = dep.SetVariables(merged)
		if err := o.Deployments.Save(dep); err != nil {
			_ = agg.FailStack(sub.StackName, err.Error())
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, IsNewInUpgrade: sub.IsNewInUpgrade, ErrorMessage: err.Error()})
			if !agg.ContinueOnError {
				break
			}
			continue
		}

		o.Notifier.Progress(sid, fmt.Sprintf("Deploying stack %s", sub.StackDisplayName), 0)
		execResult, execErr := o.Engine.Execute(ctx, agg.EnvironmentID, dep.ID, plan, nil)

		if execErr != nil || !execResult.Success {
			reason := strings.Join(execResult.Errors, "; ")
			if reason == "" && execErr != nil {
				reason = execErr.Error()
			}
			dep.MarkAsFailed(reason)
			_ = o.Deployments.Save(dep)
			_ = agg.FailStack(sub.StackName, reason)
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, DeploymentID: &dep.ID, IsNewInUpgrade: sub.IsNewInUpgrade, ErrorMessage: reason})
			if !agg.ContinueOnError {
				break
			}
			continue
		}

		_ = dep.MarkAsRunning(toServiceInstances(execResult.Services))
		_ = o.Deployments.Save(dep)
		_ = agg.StartStack(sub.StackName, dep.ID, deploymentStackName)
		_ = agg.CompleteStack(sub.StackName)
		_ = o.saveProduct(agg)
		results = append(results, StackResult{Name: sub.StackDisplayName, Success: true, DeploymentID: &dep.ID, IsNewInUpgrade: sub.IsNewInUpgrade})
	}

	return results
}

func (o *Orchestrator) finish(agg *product.ProductDeployment, results []StackResult, sid string) Response {
	success := true
	for _, r := range results {
		if !r.Success {
			success = false
			break
		}
	}

	if success {
		o.Notifier.Completed(sid, agg.ProductName, agg.ProductVersion, len(agg.Stacks))
	} else {
		o.Notifier.Error(sid, agg.ProductName, agg.ProductVersion, len(agg.Stacks), agg.ErrorMessage)
	}

	return Response{
		Success:      success,
		Status:       agg.Status,
		Message:      statusMessage(agg.Status),
		StackResults: results,
		SessionID:    sid,
	}
}

func statusMessage(status product.Status) string {
	switch status {
	case product.StatusRunning:
		return "deployment completed successfully"
	case product.StatusPartiallyRunning:
		return "deployment completed with failures"
	case product.StatusFailed:
		return "deployment failed"
	case product.StatusRemoved:
		return "removal completed"
	default:
		return string(status)
	}
}

// UpgradeProduct validates the target version is a SemVer upgrade over
// existing's current version, matches stacks across versions by
// displayName to preserve deploymentStackName and prior variables, and
// runs the upgrade the same way DeployProduct runs an install.
func (o *Orchestrator) UpgradeProduct(ctx context.Context, environmentID ids.EnvironmentID, groupID, targetVersion string, sharedVars map[string]string, perStackVars map[string]map[string]string, sessionID string, utcTimestampMillis int64) (resp Response, err error) {
	defer o.observeDuration("upgrade", time.Now(), &resp, &err)

	existing, err := o.Products.GetActiveForGroup(environmentID, groupID)
	if err != nil {
		return Response{}, err
	}

	current, cerr := semver.NewVersion(existing.ProductVersion)
	target, terr := semver.NewVersion(targetVersion)
	if cerr != nil || terr != nil {
		return Response{}, apperrors.NewValidationError("productVersion", "not a valid semantic version")
	}
	if !target.GreaterThan(current) {
		if target.Equal(current) {
			return Response{}, apperrors.NewValidationError("productVersion", "already on version "+targetVersion)
		}
		return Response{}, apperrors.NewValidationError("productVersion", "downgrade not permitted")
	}

	def, err := o.Catalog.Get(groupID, targetVersion)
	if err != nil {
		return Response{}, err
	}

	priorVars := make(map[string]map[string]string, len(existing.Stacks))
	priorDeploymentNames := make(map[string]string, len(existing.Stacks))
	for _, s := range existing.Stacks {
		key := strings.ToLower(s.StackDisplayName)
		priorVars[key] = s.Variables
		priorDeploymentNames[key] = s.DeploymentStackName
	}

	configs := stackConfigsFrom(def, perStackVars)
	var warnings []string
	for key, depName := range priorDeploymentNames {
		found := false
		for _, c := range configs {
			if strings.ToLower(c.StackDisplayName) == key {
				found = true
				break
			}
		}
		if !found {
			warnings = append(warnings, fmt.Sprintf("stack %s removed in upgrade", depName))
		}
	}

	agg, err := product.InitiateUpgrade(existing, def.ProductID, def.Name, def.ProductVersion, configs, sharedVars)
	if err != nil {
		return Response{}, err
	}

	for i := range agg.Stacks {
		key := strings.ToLower(agg.Stacks[i].StackDisplayName)
		if name, ok := priorDeploymentNames[key]; ok {
			agg.Stacks[i].DeploymentStackName = name
		}
	}

	if err := o.saveProduct(agg); err != nil {
		return Response{}, err
	}

	sid := notify.SessionID(sessionID, "upgrade", def.Name, utcTimestampMillis)
	o.Notifier.Progress(sid, "Starting upgrade", 0)

	results := o.runStacks(ctx, agg, def, priorVars, sid)
	resp := o.finish(agg, results, sid)
	resp.Warnings = warnings
	return resp, nil
}

// RemoveProduct runs the full removal flow: reverse-order stack
// teardown followed by product-state cleanup.
func (o *Orchestrator) RemoveProduct(ctx context.Context, environmentID ids.EnvironmentID, groupID string, sessionID string, utcTimestampMillis int64) (resp Response, err error) {
	defer o.observeDuration("remove", time.Now(), &resp, &err)

	agg, err := o.Products.GetActiveForGroup(environmentID, groupID)
	if err != nil {
		return Response{}, err
	}
	def, err := o.Catalog.Get(groupID, agg.ProductVersion)
	if err != nil {
		return Response{}, err
	}
	if err := agg.StartRemoval(); err != nil {
		return Response{}, err
	}
	if err := o.saveProduct(agg); err != nil {
		return Response{}, err
	}

	sid := notify.SessionID(sessionID, "remove", agg.ProductName, utcTimestampMillis)
	o.Notifier.Progress(sid, "Starting removal", 0)

	var results []StackResult
	dockerFailed := false

	for _, idx := range agg.RemovalOrder() {
		sub := agg.Stacks[idx]
		if sub.DeploymentID == nil {
			_ = agg.RemoveStackEntry(sub.StackName)
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: true})
			continue
		}

		dep, err := o.Deployments.Get(*sub.DeploymentID)
		if err != nil {
			dockerFailed = true
			_ = agg.RemoveStackEntry(sub.StackName)
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, DeploymentID: sub.DeploymentID, ErrorMessage: err.Error()})
			continue
		}

		plan, err := planner.Compile(def.Manifest, sub.StackName, dep.Variables)
		if err != nil {
			dockerFailed = true
			_ = agg.RemoveStackEntry(sub.StackName)
			_ = o.saveProduct(agg)
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, DeploymentID: sub.DeploymentID, ErrorMessage: err.Error()})
			continue
		}

		_, execErr := o.Engine.RemoveStack(ctx, plan, nil)
		if execErr != nil {
			dockerFailed = true
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: false, DeploymentID: sub.DeploymentID, ErrorMessage: execErr.Error()})
		} else {
			results = append(results, StackResult{Name: sub.StackDisplayName, Success: true, DeploymentID: sub.DeploymentID})
		}

		dep.MarkAsRemoved()
		_ = o.Deployments.Save(dep)
		_ = agg.RemoveStackEntry(sub.StackName)
		_ = o.saveProduct(agg)
	}

	o.Notifier.Completed(sid, agg.ProductName, agg.ProductVersion, len(agg.Stacks))

	return Response{
		Success:      !dockerFailed,
		Status:       agg.Status,
		Message:      statusMessage(agg.Status),
		StackResults: results,
		SessionID:    sid,
	}, nil
}

// UpgradeCandidate is one available-upgrade entry returned by
// CheckProductUpgrade.
type UpgradeCandidate struct {
	ProductVersion string
	NewStacks      []string
	RemovedStacks  []string
}

// CheckProductUpgrade reports whether groupID can be upgraded from its
// current active deployment and lists every strictly-greater catalog
// version with its stack diff.
func (o *Orchestrator) CheckProductUpgrade(environmentID ids.EnvironmentID, groupID string) (canUpgrade bool, candidates []UpgradeCandidate, err error) {
	existing, err := o.Products.GetActiveForGroup(environmentID, groupID)
	if err != nil {
		return false, nil, err
	}

	canUpgrade = existing.Status == product.StatusRunning || existing.Status == product.StatusPartiallyRunning

	upgrades, err := o.Catalog.GetAvailableUpgrades(groupID, existing.ProductVersion)
	if err != nil {
		return canUpgrade, nil, err
	}

	existingNames := make(map[string]bool, len(existing.Stacks))
	for _, s := range existing.Stacks {
		existingNames[strings.ToLower(s.StackDisplayName)] = true
	}

	for _, def := range upgrades {
		targetNames := make(map[string]bool, len(def.Stacks))
		var newStacks, removedStacks []string
		for _, sc := range def.Stacks {
			key := strings.ToLower(sc.DisplayName)
			targetNames[key] = true
			if !existingNames[key] {
				newStacks = append(newStacks, sc.DisplayName)
			}
		}
		for _, s := range existing.Stacks {
			if !targetNames[strings.ToLower(s.StackDisplayName)] {
				removedStacks = append(removedStacks, s.StackDisplayName)
			}
		}
		candidates = append(candidates, UpgradeCandidate{
			ProductVersion: def.ProductVersion,
			NewStacks:      newStacks,
			RemovedStacks:  removedStacks,
		})
	}

	return canUpgrade, candidates, nil
}

package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/ids"
)

func threeStackConfigs() []StackConfig {
	return []StackConfig{
		{StackName: "db", StackDisplayName: "Database", StackID: "db-1", Order: 0, ServiceCount: 1},
		{StackName: "api", StackDisplayName: "API", StackID: "api-1", Order: 1, ServiceCount: 2},
		{StackName: "web", StackDisplayName: "Web", StackID: "web-1", Order: 2, ServiceCount: 1},
	}
}

func TestInitiateDeploymentMaterializesStacksInOrder(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), map[string]string{"TAG": "latest"}, true)

	assert.Equal(t, StatusDeploying, p.Status)
	require.Len(t, p.Stacks, 3)
	assert.Equal(t, "db", p.Stacks[0].StackName)
	require.Len(t, p.PhaseHistory, 1)
	assert.Equal(t, "Deployment initiated", p.PhaseHistory[0].Message)
	for _, s := range p.Stacks {
		assert.Equal(t, StackPending, s.Status)
		assert.False(t, s.IsNewInUpgrade)
	}
}

func TestInitiateUpgradeRejectedFromDeploying(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	_, err := InitiateUpgrade(p, "prod-1", "blog", "2.0.0", threeStackConfigs(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionViolated(err))
}

func TestInitiateUpgradeFlagsNewStacksByDisplayName(t *testing.T) {
	env := ids.NewEnvironmentID()
	existing := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs()[:2], nil, true)
	existing.Status = StatusRunning

	upgraded, err := InitiateUpgrade(existing, "prod-1", "blog", "2.0.0", threeStackConfigs(), nil)
	require.NoError(t, err)

	assert.Equal(t, existing.ProductVersion, upgraded.PreviousVersion)
	assert.Equal(t, existing.UpgradeCount+1, upgraded.UpgradeCount)
	assert.Equal(t, StatusUpgrading, upgraded.Status)

	var found bool
	for _, s := range upgraded.Stacks {
		if s.StackDisplayName == "Web" {
			assert.True(t, s.IsNewInUpgrade)
			found = true
		} else {
			assert.False(t, s.IsNewInUpgrade)
		}
	}
	assert.True(t, found)
}

func TestStartCompleteFailStackTransitions(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	dep := ids.NewDeploymentID()
	require.NoError(t, p.StartStack("db", dep, "db"))
	assert.Equal(t, StackRunning, p.Stacks[0].Status)
	require.NotNil(t, p.Stacks[0].DeploymentID)
	assert.Equal(t, dep, *p.Stacks[0].DeploymentID)

	require.NoError(t, p.CompleteStack("db"))
	assert.NotNil(t, p.Stacks[0].CompletedAt)

	require.NoError(t, p.FailStack("api", "image pull failed"))
	assert.Equal(t, StackFailed, p.Stacks[1].Status)
	assert.Equal(t, "image pull failed", p.Stacks[1].ErrorMessage)
}

func TestRecomputeStatusAllRunning(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	for _, cfg := range threeStackConfigs() {
		require.NoError(t, p.StartStack(cfg.StackName, ids.NewDeploymentID(), cfg.StackName))
	}
	assert.Equal(t, StatusRunning, p.Status)
	assert.NotNil(t, p.CompletedAt)
}

func TestRecomputeStatusMixedIsPartiallyRunning(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	require.NoError(t, p.StartStack("db", ids.NewDeploymentID(), "db"))
	require.NoError(t, p.FailStack("api", "boom"))

	assert.Equal(t, StatusPartiallyRunning, p.Status)
}

func TestRecomputeStatusAllFailed(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	for _, cfg := range threeStackConfigs() {
		require.NoError(t, p.FailStack(cfg.StackName, "boom"))
	}
	assert.Equal(t, StatusFailed, p.Status)
}

func TestStartRemovalOnlyLegalFromRunningPartiallyRunningFailed(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	err := p.StartRemoval()
	require.Error(t, err)

	p.Status = StatusRunning
	require.NoError(t, p.StartRemoval())
	assert.Equal(t, StatusRemoving, p.Status)
}

func TestRemoveStackEntryTransitionsAggregateWhenAllRemoved(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)
	p.Status = StatusRunning
	require.NoError(t, p.StartRemoval())

	for _, idx := range p.RemovalOrder() {
		require.NoError(t, p.RemoveStackEntry(p.Stacks[idx].StackName))
	}
	assert.Equal(t, StatusRemoved, p.Status)
}

func TestDeployOrderAscendingRemovalOrderDescending(t *testing.T) {
	env := ids.NewEnvironmentID()
	p := InitiateDeployment(env, "grp-1", "prod-1", "blog", "1.0.0", threeStackConfigs(), nil, true)

	deploy := p.DeployOrder()
	removal := p.RemovalOrder()

	assert.Equal(t, []int{0, 1, 2}, deploy)
	assert.Equal(t, []int{2, 1, 0}, removal)
}

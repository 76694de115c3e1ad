package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/manifest"
)

func singleStackManifest() manifest.Manifest {
	return manifest.Manifest{
		Metadata: manifest.Metadata{Name: "blog", ProductVersion: "1.0.0"},
		Services: map[string]manifest.ServiceTemplate{
			"db":      {Image: "postgres:${PG_TAG}"},
			"web":     {Image: "blog-web:${WEB_TAG:-latest}", DependsOn: []string{"db"}, Ports: []string{"${HTTP_PORT}:80"}},
			"migrate": {Image: "blog-web:${WEB_TAG:-latest}", Init: true, DependsOn: []string{"db"}},
		},
	}
}

func TestCompileOrdersDependenciesFirst(t *testing.T) {
	m := singleStackManifest()
	vars := map[string]string{"PG_TAG": "16", "HTTP_PORT": "8080"}

	plan, err := Compile(m, "blog", vars)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	pos := map[string]int{}
	for _, s := range plan.Steps {
		pos[s.ServiceName] = s.Order
	}
	assert.Less(t, pos["db"], pos["web"])
	assert.Less(t, pos["db"], pos["migrate"])
}

func TestCompileSubstitutesPlaceholders(t *testing.T) {
	m := singleStackManifest()
	vars := map[string]string{"PG_TAG": "16", "HTTP_PORT": "8080"}

	plan, err := Compile(m, "blog", vars)
	require.NoError(t, err)

	var web Step
	for _, s := range plan.Steps {
		if s.ServiceName == "web" {
			web = s
		}
	}
	assert.Equal(t, "blog-web", web.Image.Repository)
	assert.Equal(t, "latest", web.Image.Tag)
	assert.Equal(t, []string{"8080:80"}, web.Ports)
}

func TestCompileMarksInitLifecycle(t *testing.T) {
	m := singleStackManifest()
	plan, err := Compile(m, "blog", map[string]string{"PG_TAG": "16", "HTTP_PORT": "8080"})
	require.NoError(t, err)

	init := plan.InitSteps()
	require.Len(t, init, 1)
	assert.Equal(t, "migrate", init[0].ServiceName)
}

func TestCompileDefaultsToStackNetworkWhenUnset(t *testing.T) {
	m := singleStackManifest()
	plan, err := Compile(m, "blog", map[string]string{"PG_TAG": "16", "HTTP_PORT": "8080"})
	require.NoError(t, err)

	assert.Equal(t, "blog_default", plan.Network)
	for _, s := range plan.Steps {
		assert.Contains(t, s.Networks, "blog_default")
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	m := manifest.Manifest{
		Metadata: manifest.Metadata{Name: "cyclic", ProductVersion: "1.0.0"},
		Services: map[string]manifest.ServiceTemplate{
			"a": {Image: "x", DependsOn: []string{"b"}},
			"b": {Image: "y", DependsOn: []string{"a"}},
		},
	}
	_, err := Compile(m, "cyclic", map[string]string{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCycle(err))
}

func TestCompileEmptyStackIsValidationError(t *testing.T) {
	m := manifest.Manifest{
		Metadata: manifest.Metadata{Name: "multi", ProductVersion: "1.0.0"},
		Stacks: map[string]manifest.StackEntry{
			"empty": {Services: map[string]manifest.ServiceTemplate{}},
		},
	}
	_, err := Compile(m, "empty", map[string]string{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCompileTiesBreakByManifestDeclarationOrder(t *testing.T) {
	m := manifest.Manifest{
		Metadata: manifest.Metadata{Name: "blog", ProductVersion: "1.0.0"},
		Services: map[string]manifest.ServiceTemplate{
			"web":     {Image: "blog-web:1.0"},
			"metrics": {Image: "blog-metrics:1.0"},
			"cache":   {Image: "redis:7"},
		},
		ServicesOrder: []string{"web", "metrics", "cache"},
	}

	plan, err := Compile(m, "blog", map[string]string{})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	var order []string
	for _, s := range plan.Steps {
		order = append(order, s.ServiceName)
	}
	assert.Equal(t, []string{"web", "metrics", "cache"}, order, "independent services with no dependency edges must keep declaration order")
}

func TestReverseOrderIsStrictlyDescending(t *testing.T) {
	m := singleStackManifest()
	plan, err := Compile(m, "blog", map[string]string{"PG_TAG": "16", "HTTP_PORT": "8080"})
	require.NoError(t, err)

	rev := plan.ReverseOrder()
	require.Len(t, rev, len(plan.Steps))
	for i := 1; i < len(rev); i++ {
		assert.Greater(t, rev[i-1].Order, rev[i].Order)
	}
}

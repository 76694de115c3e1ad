package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile is a small test helper for building fixture trees under
// t.TempDir().
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestIncludeFlattening reproduces S7: a main manifest includes a
// multi-stack fragment and the including stack ends up with every
// sub-stack's services flattened into one dictionary.
func TestIncludeFlattening(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "business-services.yaml", `
metadata:
  name: business-services
  productId: biz
  productVersion: "1.0.0"
stacks:
  projectmanagement:
    services:
      project-api:
        image: acme/project-api:1.0
      project-web:
        image: acme/project-web:1.0
  memo:
    services:
      memo-api:
        image: acme/memo-api:1.0
`)

	mainPath := writeFile(t, dir, "main.yaml", `
metadata:
  name: main-product
  productId: main
  productVersion: "1.0.0"
stacks:
  business:
    include: business-services.yaml
`)

	m, err := ParseFromFile(mainPath)
	require.NoError(t, err)

	business := m.Stacks["business"]
	assert.Len(t, business.Services, 3)
	assert.Contains(t, business.Services, "project-api")
	assert.Contains(t, business.Services, "project-web")
	assert.Contains(t, business.Services, "memo-api")
	assert.Equal(t, "business-services", business.Metadata.Name)
}

func TestServicesIncludeMergesWithLaterShadowing(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "base.yaml", `
metadata:
  name: base
services:
  shared-svc:
    image: acme/shared:1.0
`)
	writeFile(t, dir, "override.yaml", `
metadata:
  name: override
services:
  shared-svc:
    image: acme/shared:2.0
  extra-svc:
    image: acme/extra:1.0
`)

	mainPath := writeFile(t, dir, "main.yaml", `
metadata:
  name: main
  productVersion: "1.0.0"
services:
  include: [base.yaml, override.yaml]
  own-svc:
    image: acme/own:1.0
`)

	m, err := ParseFromFile(mainPath)
	require.NoError(t, err)

	require.Contains(t, m.Services, "shared-svc")
	assert.Equal(t, "acme/shared:2.0", m.Services["shared-svc"].Image, "later include should shadow earlier")
	assert.Contains(t, m.Services, "extra-svc")
	assert.Contains(t, m.Services, "own-svc")
}

func TestIncludeCycleDetected(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.yaml")
	bPath := filepath.Join(dir, "b.yaml")

	writeFile(t, dir, "a.yaml", `
metadata:
  name: a
stacks:
  s:
    include: b.yaml
`)
	writeFile(t, dir, "b.yaml", `
metadata:
  name: b
stacks:
  s:
    include: a.yaml
`)
	_ = bPath

	_, err := ParseFromFile(aPath)
	require.Error(t, err)
}

func TestEnvironmentListFormAccepted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "compose.yaml", `
metadata:
  name: compose-style
services:
  web:
    image: nginx:1.25
    environment:
      - FOO=bar
      - BAZ=qux
    depends_on:
      db:
        condition: service_healthy
  db:
    image: postgres:15
`)

	m, err := ParseFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bar", m.Services["web"].Env["FOO"])
	assert.Equal(t, "qux", m.Services["web"].Env["BAZ"])
	assert.Equal(t, []string{"db"}, m.Services["web"].DependsOn)
}

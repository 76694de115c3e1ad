package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageWithPathPanicsOnEmptyPath(t *testing.T) {
	assert.Panics(t, func() { NewStorageWithPath("") })
}

func TestStorageSaveLoadDelete(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())

	require.NoError(t, s.Save("registries", "docker-hub", []byte("name: docker-hub\n")))

	data, err := s.Load("registries", "docker-hub")
	require.NoError(t, err)
	assert.Equal(t, "name: docker-hub\n", string(data))

	require.NoError(t, s.Delete("registries", "docker-hub"))
	_, err = s.Load("registries", "docker-hub")
	assert.Error(t, err)
}

func TestStorageLoadMissingEntityErrors(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())
	_, err := s.Load("registries", "nope")
	assert.Error(t, err)
}

func TestStorageRejectsEmptyEntityTypeOrName(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())

	_, err := s.Load("", "name")
	assert.Error(t, err)
	_, err = s.Load("registries", "")
	assert.Error(t, err)
	assert.Error(t, s.Save("", "name", nil))
	assert.Error(t, s.Delete("registries", ""))
}

func TestStorageList(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())
	require.NoError(t, s.Save("registries", "docker-hub", []byte("a")))
	require.NoError(t, s.Save("registries", "quay", []byte("b")))

	names, err := s.List("registries")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"docker-hub", "quay"}, names)
}

func TestStorageListEmptyDirectoryReturnsNoError(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())
	names, err := s.List("registries")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStorageSanitizeFilenameCollapsesAndStrips(t *testing.T) {
	s := NewStorageWithPath(t.TempDir())
	require.NoError(t, s.Save("registries", "My Registry: v2.0", []byte("x")))

	names, err := s.List("registries")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "My_Registry_v2_0", names[0])
}

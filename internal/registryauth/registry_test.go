package registryauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddEnforcesSingleDefault(t *testing.T) {
	s := NewStore()

	id1, err := s.Add(Registry{OrgID: "org1", Name: "primary", IsDefault: true, ImagePatterns: []string{"*"}})
	require.NoError(t, err)

	id2, err := s.Add(Registry{OrgID: "org1", Name: "secondary", IsDefault: true, ImagePatterns: []string{"internal.example.com/**"}})
	require.NoError(t, err)

	list := s.ListForOrg("org1")
	var defaults int
	for _, r := range list {
		if r.IsDefault {
			defaults++
			assert.Equal(t, id2, r.ID)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.NotEqual(t, id1, id2)
}

func TestStoreAddRejectsDuplicateName(t *testing.T) {
	s := NewStore()
	_, err := s.Add(Registry{OrgID: "org1", Name: "dup"})
	require.NoError(t, err)

	_, err = s.Add(Registry{OrgID: "org1", Name: "dup"})
	assert.Error(t, err)
}

func TestFindMatchingLongestPrefixWins(t *testing.T) {
	s := NewStore()
	_, err := s.Add(Registry{OrgID: "org1", Name: "general", ImagePatterns: []string{"**"}})
	require.NoError(t, err)
	specific, err := s.Add(Registry{OrgID: "org1", Name: "internal", ImagePatterns: []string{"internal.example.com/*"}})
	require.NoError(t, err)

	got, ok := s.FindMatching("org1", "internal.example.com/app:1.0")
	require.True(t, ok)
	assert.Equal(t, specific, got.ID)
}

func TestFindMatchingFallsBackToDefault(t *testing.T) {
	s := NewStore()
	def, err := s.Add(Registry{OrgID: "org1", Name: "default-registry", IsDefault: true, ImagePatterns: []string{"only.match.this/**"}})
	require.NoError(t, err)

	got, ok := s.FindMatching("org1", "something.else/app:1.0")
	require.True(t, ok)
	assert.Equal(t, def, got.ID)
}

func TestFindMatchingNoneWhenNoDefault(t *testing.T) {
	s := NewStore()
	_, err := s.Add(Registry{OrgID: "org1", Name: "specific", ImagePatterns: []string{"only.match.this/**"}})
	require.NoError(t, err)

	_, ok := s.FindMatching("org1", "something.else/app:1.0")
	assert.False(t, ok)
}

func TestMatchGlobDoubleStarCrossesSegments(t *testing.T) {
	assert.True(t, matchGlob("registry.example.com/**", "registry.example.com/team/app"))
	assert.True(t, matchGlob("registry.example.com/**", "registry.example.com/app"))
	assert.False(t, matchGlob("registry.example.com/*", "registry.example.com/team/app"))
	assert.True(t, matchGlob("registry.example.com/*", "registry.example.com/app"))
}

func TestMatchGlobCaseInsensitive(t *testing.T) {
	assert.True(t, matchGlob("Registry.Example.com/**", "registry.example.com/app"))
}

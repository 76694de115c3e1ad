package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmptyImageError(t *testing.T) {
	m := Manifest{
		Metadata: Metadata{Name: "single", ProductVersion: "1.0.0"},
		Services: map[string]ServiceTemplate{
			"web": {Image: ""},
		},
	}
	result := Validate(m)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "single")
	assert.Contains(t, result.Errors[0], "web")
}

func TestValidateFragmentWarning(t *testing.T) {
	m := Manifest{
		Metadata: Metadata{Name: "fragment"},
		Services: map[string]ServiceTemplate{"web": {Image: "nginx:1.25"}},
	}
	result := Validate(m)
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 1)
}

func TestValidateSelectWithoutOptionsWarns(t *testing.T) {
	m := Manifest{
		Metadata: Metadata{Name: "p", ProductVersion: "1.0.0"},
		Services: map[string]ServiceTemplate{"web": {Image: "nginx:1.25"}},
		Variables: map[string]VarDecl{
			"MODE": {Type: VarTypeSelect},
		},
	}
	result := Validate(m)
	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings[0], "MODE")
}

func TestValidateInvalidPatternErrors(t *testing.T) {
	m := Manifest{
		Metadata: Metadata{Name: "p", ProductVersion: "1.0.0"},
		Services: map[string]ServiceTemplate{"web": {Image: "nginx:1.25"}},
		Variables: map[string]VarDecl{
			"NAME": {Type: VarTypeString, Pattern: "(unclosed"},
		},
	}
	result := Validate(m)
	assert.False(t, result.IsValid)
}

func TestValidateStackWithoutServicesOrInclude(t *testing.T) {
	m := Manifest{
		Metadata: Metadata{Name: "p", ProductVersion: "1.0.0"},
		Stacks: map[string]StackEntry{
			"empty": {},
		},
	}
	result := Validate(m)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "empty")
}

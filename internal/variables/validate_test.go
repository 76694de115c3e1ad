package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/readystackgo/rsgo/internal/manifest"
)

func TestValidateTypesPortRange(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"HTTP_PORT": {Type: manifest.VarTypePort},
	}
	result := ValidateTypes(decls, map[string]string{"HTTP_PORT": "70000"})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.VariableErrors, "HTTP_PORT")

	result = ValidateTypes(decls, map[string]string{"HTTP_PORT": "8080"})
	assert.True(t, result.IsValid)
}

func TestValidateTypesIntegerMinMax(t *testing.T) {
	min, max := 1, 10
	decls := map[string]manifest.VarDecl{
		"WORKERS": {Type: manifest.VarTypeInteger, Min: &min, Max: &max},
	}
	result := ValidateTypes(decls, map[string]string{"WORKERS": "20"})
	assert.False(t, result.IsValid)

	result = ValidateTypes(decls, map[string]string{"WORKERS": "5"})
	assert.True(t, result.IsValid)
}

func TestValidateTypesBooleanCaseInsensitive(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"ENABLE_TLS": {Type: manifest.VarTypeBoolean},
	}
	result := ValidateTypes(decls, map[string]string{"ENABLE_TLS": "TRUE"})
	assert.True(t, result.IsValid)

	result = ValidateTypes(decls, map[string]string{"ENABLE_TLS": "nope"})
	assert.False(t, result.IsValid)
}

func TestValidateTypesSelectMustMatchOption(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"MODE": {Type: manifest.VarTypeSelect, Options: []manifest.SelectOption{
			{Value: "dev"}, {Value: "prod"},
		}},
	}
	result := ValidateTypes(decls, map[string]string{"MODE": "staging"})
	assert.False(t, result.IsValid)

	result = ValidateTypes(decls, map[string]string{"MODE": "prod"})
	assert.True(t, result.IsValid)
}

func TestValidateTypesStringPattern(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"NAME": {Type: manifest.VarTypeString, Pattern: "^[a-z]+$", PatternError: "lowercase letters only"},
	}
	result := ValidateTypes(decls, map[string]string{"NAME": "Bad123"})
	assert.False(t, result.IsValid)
	assert.Equal(t, "lowercase letters only", result.VariableErrors["NAME"])

	result = ValidateTypes(decls, map[string]string{"NAME": "good"})
	assert.True(t, result.IsValid)
}

func TestValidateTypesPasswordOpaque(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"DB_PASSWORD": {Type: manifest.VarTypePassword, Required: true},
	}
	result := ValidateTypes(decls, map[string]string{"DB_PASSWORD": "whatever-it-is"})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.VariableErrors)
}

func TestValidateTypesMissingRequired(t *testing.T) {
	decls := map[string]manifest.VarDecl{
		"DB_HOST": {Type: manifest.VarTypeString, Required: true},
	}
	result := ValidateTypes(decls, map[string]string{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.MissingRequired, "DB_HOST")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRsgoConfigYAMLRoundTrip(t *testing.T) {
	cfg := RsgoConfig{
		DataDir:            "/var/lib/rsgo",
		DockerHost:         "unix:///var/run/docker.sock",
		DefaultRegistryURL: "registry.example.com",
		LogLevel:           "debug",
		FeatureFlags:       map[string]bool{"experimental-upgrade": true},
	}

	data, err := yaml.Marshal(&cfg)
	require.NoError(t, err)

	var out RsgoConfig
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, cfg, out)
}

func TestGetDefaultConfigHasNoDataDirOrDockerHostOverride(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Empty(t, cfg.DataDir)
	assert.Empty(t, cfg.DockerHost)
	assert.Equal(t, "info", cfg.LogLevel)
}

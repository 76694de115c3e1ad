package config

// RsgoConfig is the top-level process configuration for rsgoctl and any
// long-running host embedding these stores: GetDefaultConfig overlaid
// by a single config.yaml (see LoadConfig).
type RsgoConfig struct {
	DataDir                   string            `yaml:"dataDir,omitempty"`
	DockerHost                string            `yaml:"dockerHost,omitempty"`
	DefaultRegistryURL        string            `yaml:"defaultRegistryUrl,omitempty"`
	LogLevel                  string            `yaml:"logLevel,omitempty"`
	HealthPollInterval        string            `yaml:"healthPollInterval,omitempty"`
	HealthRetention           string            `yaml:"healthRetention,omitempty"`
	FeatureFlags              map[string]bool   `yaml:"featureFlags,omitempty"`
	RegistryPasswordFileByURL map[string]string `yaml:"registryPasswordFileByUrl,omitempty"`
}

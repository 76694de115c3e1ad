package config

// GetDefaultConfig returns the configuration used when no config.yaml
// exists on disk.
func GetDefaultConfig() RsgoConfig {
	return RsgoConfig{
		LogLevel:           "info",
		HealthPollInterval: "30s",
		HealthRetention:    "168h",
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/readystackgo/rsgo/pkg/logging"
)

const (
	userConfigDir  = ".config/rsgo"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory. The
// directory should contain config.yaml and subdirectories for entity
// storage (registries).
func LoadConfig(configPath string) (RsgoConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return RsgoConfig{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RsgoConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)

	if err := resolveRegistryPasswordFiles(&cfg); err != nil {
		return RsgoConfig{}, fmt.Errorf("error resolving registry password files: %w", err)
	}

	return cfg, nil
}

// resolveRegistryPasswordFiles checks that every registry password file
// named in RegistryPasswordFileByURL can be read, and fails the load when
// one cannot. The passwords it reads are neither returned nor stored;
// RsgoConfig holds only the file paths.
func resolveRegistryPasswordFiles(cfg *RsgoConfig) error {
	for url, file := range cfg.RegistryPasswordFileByURL {
		if file == "" {
			continue
		}
		if _, err := readSecretFile(file); err != nil {
			return fmt.Errorf("failed to read registry password for %s from %s: %w", url, file, err)
		}
		logging.Info("ConfigLoader", "Loaded registry password for %s from file", url)
	}
	return nil
}

// readSecretFile reads a secret from a file, trimming trailing whitespace.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

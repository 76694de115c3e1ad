// Package config provides process configuration and entity storage for
// rsgo.
//
// # Configuration Layers
//
// RsgoConfig is loaded and merged in the following order:
//
//  1. Default configuration (GetDefaultConfig) — conservative defaults
//     for log level, health poll interval, and health retention.
//  2. A single config.yaml file in a caller-supplied directory
//     (defaulting to ~/.config/rsgo), which overrides any default it
//     sets explicitly.
//
// Registry passwords may be supplied out-of-band via
// RegistryPasswordFileByURL, a map from registry URL to a file path
// holding the password, so that cleartext credentials never need to
// live in config.yaml itself. LoadConfig checks that each such file can
// be read; it does not pass the passwords on to registryauth.
//
// # Entity Storage
//
// Storage provides generic YAML-file persistence for named entities under
// type-specific subdirectories of a single configuration directory.
// cmd/rsgoctl uses it to carry registryauth.Store's credentials across
// process invocations, since each CLI invocation starts from an empty
// in-memory store; it is a stand-in for a proper embedded SQL persistence
// layer, not a replacement for one. The product catalog is rebuilt from
// watched manifest files each run and is not Storage-backed.
package config

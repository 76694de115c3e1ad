// Package rsgoctl implements the command-line control surface for the
// container-stack orchestrator: exit-code constants, errors.As-based
// exit code derivation, and the root Execute() entry point.
package rsgoctl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/readystackgo/rsgo/internal/apperrors"
	"github.com/readystackgo/rsgo/internal/catalog"
	"github.com/readystackgo/rsgo/internal/config"
	"github.com/readystackgo/rsgo/internal/deployment"
	"github.com/readystackgo/rsgo/internal/engine"
	"github.com/readystackgo/rsgo/internal/health"
	"github.com/readystackgo/rsgo/internal/metrics"
	"github.com/readystackgo/rsgo/internal/notify"
	"github.com/readystackgo/rsgo/internal/product"
	"github.com/readystackgo/rsgo/internal/productorch"
	"github.com/readystackgo/rsgo/internal/registryauth"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeNotFound     = 2
	ExitCodePrecondition = 3
)

// app bundles every in-process store the CLI operates against. A single
// instance is constructed once per invocation; registry credentials
// survive across invocations via Storage (see DESIGN.md), everything
// else is rebuilt from scratch each run (see DESIGN.md for the
// persistence layer's scope).
type app struct {
	Catalog      *catalog.Catalog
	Products     *product.Store
	Deployments  *deployment.Store
	Registries   *registryauth.Store
	Storage      *config.Storage
	Health       *health.Store
	Notifier     *notify.Notifier
	Metrics      *metrics.Registry
	Orchestrator *productorch.Orchestrator
}

func newApp() (*app, error) {
	configPath := config.GetDefaultConfigPathOrPanic()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	rt, err := engine.NewDockerRuntimeWithHost(cfg.DockerHost)
	if err != nil {
		return nil, fmt.Errorf("connecting to container runtime: %w", err)
	}

	cat := catalog.New()
	products := product.NewStore()
	deployments := deployment.NewStore()
	registries := registryauth.NewStore()
	healthStore := health.NewStore()
	notifier := notify.New()
	metricsRegistry := metrics.New()
	eng := engine.New(rt, registries)
	eng.Metrics = metricsRegistry

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(configPath, "data")
	}
	storage := config.NewStorageWithPath(dataDir)
	if err := loadPersistedRegistries(storage, registries); err != nil {
		return nil, fmt.Errorf("loading persisted registries: %w", err)
	}

	if cfg.DefaultRegistryURL != "" {
		_, _ = registries.Add(registryauth.Registry{
			OrgID:     "default",
			Name:      "default",
			URL:       cfg.DefaultRegistryURL,
			IsDefault: true,
		})
	}

	orch := productorch.New(cat, products, deployments, eng, notifier)
	orch.Metrics = metricsRegistry

	return &app{
		Catalog:      cat,
		Products:     products,
		Storage:      storage,
		Deployments:  deployments,
		Registries:   registries,
		Health:       healthStore,
		Notifier:     notifier,
		Metrics:      metricsRegistry,
		Orchestrator: orch,
	}, nil
}

// registriesEntityType is the Storage subdirectory registry credentials
// are saved under. Each rsgoctl invocation starts with an empty
// registryauth.Store, so without this a registry added in one process
// would be invisible to the next.
const registriesEntityType = "registries"

func registryStorageKey(orgID, name string) string {
	return orgID + "_" + name
}

func loadPersistedRegistries(storage *config.Storage, registries *registryauth.Store) error {
	names, err := storage.List(registriesEntityType)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := storage.Load(registriesEntityType, name)
		if err != nil {
			return err
		}
		var r registryauth.Registry
		if err := yaml.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("parsing persisted registry %s: %w", name, err)
		}
		if _, err := registries.Add(r); err != nil {
			return fmt.Errorf("restoring persisted registry %s: %w", name, err)
		}
	}
	return nil
}

func persistRegistry(storage *config.Storage, r registryauth.Registry) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return storage.Save(registriesEntityType, registryStorageKey(r.OrgID, r.Name), data)
}

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "rsgoctl",
	Short: "Operate ReadyStackGo container-stack deployments",
	Long: `rsgoctl drives the ReadyStackGo control plane: deploy, upgrade, and
remove multi-stack products, inspect deployment and health state, and
manage registry credentials.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command, injected at build
// time from main's ldflags.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rsgoctl version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case apperrors.IsNotFound(err):
		return ExitCodeNotFound
	case apperrors.IsPreconditionViolated(err):
		return ExitCodePrecondition
	default:
		return ExitCodeError
	}
}

func init() {
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newUpgradeCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRegistriesCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newMetricsCmd())
}

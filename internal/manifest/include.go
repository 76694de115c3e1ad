package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/readystackgo/rsgo/internal/apperrors"
)

// ParseFromFile parses the manifest at path and transitively resolves
// every include: and services.include: reference. Relative include
// paths are resolved against the directory of the manifest file that
// references them, not the root manifest's directory.
func ParseFromFile(path string) (Manifest, error) {
	r := &resolver{visited: map[string]bool{}}
	return r.load(path)
}

// resolver carries the cycle-detection visited set across a chain of
// includes. A single resolver instance must not be reused concurrently.
type resolver struct {
	visited map[string]bool
}

func (r *resolver) load(path string) (Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("resolving path %s: %w", path, err)
	}
	if r.visited[abs] {
		return Manifest{}, apperrors.NewCycleError([]string{abs})
	}
	r.visited[abs] = true
	defer delete(r.visited, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest %s: %w", abs, err)
	}
	m, err := ParseBytes(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", abs, err)
	}
	m.SourcePath = abs
	dir := filepath.Dir(abs)

	if len(m.ServicesInclude) > 0 && m.Services == nil {
		m.Services = map[string]ServiceTemplate{}
	}
	if err := r.resolveServicesInclude(dir, m.ServicesInclude, m.Services); err != nil {
		return Manifest{}, err
	}

	if m.Stacks != nil {
		resolved := make(map[string]StackEntry, len(m.Stacks))
		for name, entry := range m.Stacks {
			resolvedEntry, err := r.resolveStackEntry(dir, entry)
			if err != nil {
				return Manifest{}, fmt.Errorf("stack %s: %w", name, err)
			}
			resolved[name] = resolvedEntry
		}
		m.Stacks = resolved
	}

	return m, nil
}

// resolveStackEntry handles both include kinds for a single stack entry:
// a bare "include: path" (replacing the whole stack body) and a
// "services.include: [...]" sidecar merged into an inline stack's own
// services map.
func (r *resolver) resolveStackEntry(baseDir string, entry StackEntry) (StackEntry, error) {
	if entry.IsInclude() {
		fragmentPath := filepath.Join(baseDir, entry.Include)
		fragment, err := r.load(fragmentPath)
		if err != nil {
			return StackEntry{}, err
		}

		flattened := flattenServices(fragment)
		return StackEntry{
			Metadata:  fragment.Metadata,
			Variables: fragment.Variables,
			Services:  flattened,
		}, nil
	}

	if entry.Services == nil {
		entry.Services = map[string]ServiceTemplate{}
	}
	if err := r.resolveServicesInclude(baseDir, entry.ServicesInclude, entry.Services); err != nil {
		return StackEntry{}, err
	}
	return entry, nil
}

// flattenServices collapses a possibly multi-stack fragment into a
// single services dictionary, used when a stack includes a multi-stack
// product: all of its sub-stacks' services flatten into the including
// stack's single services dictionary.
func flattenServices(fragment Manifest) map[string]ServiceTemplate {
	if !fragment.IsMultiStack() {
		return fragment.Services
	}
	flattened := map[string]ServiceTemplate{}
	for _, sub := range fragment.Stacks {
		for key, svc := range sub.Services {
			flattened[key] = svc
		}
	}
	return flattened
}

// resolveServicesInclude merges each referenced fragment's services map
// into dst. Later entries shadow earlier ones on key collision, matching
// declaration order in the includes list.
func (r *resolver) resolveServicesInclude(baseDir string, includes []string, dst map[string]ServiceTemplate) error {
	for _, rel := range includes {
		fragment, err := r.load(filepath.Join(baseDir, rel))
		if err != nil {
			return err
		}
		for key, svc := range flattenServices(fragment) {
			dst[key] = svc
		}
	}
	return nil
}

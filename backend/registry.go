package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/gfx"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	// Hardware GPU first, the CPU rasterizer next, the recorder last.
	backendPriority = []string{BackendWGPU, BackendSoftware, BackendRecord}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := backends[name]
	return f, ok
}

// Get opens a device on the named backend.
func Get(name string) (gfx.Device, error) {
	factory, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilFactory, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	sprite.Logger().Info("backend: device opened", "backend", name)
	return dev, nil
}

// Default opens a device on the best available backend. Backends are tried
// in priority order (wgpu, software, record), then any other registered
// backend in name order. The returned name identifies the backend used.
func Default() (gfx.Device, string, error) {
	order := slices.Clone(backendPriority)
	for _, name := range Available() {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	var errs []error
	for _, name := range order {
		if !IsRegistered(name) {
			continue
		}
		dev, err := Get(name)
		if err == nil {
			return dev, name, nil
		}
		sprite.Logger().Warn("backend: open failed, trying next", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, "", errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}

// MustDefault returns the default device or panics.
func MustDefault() gfx.Device {
	dev, _, err := Default()
	if err != nil {
		panic(err)
	}
	return dev
}

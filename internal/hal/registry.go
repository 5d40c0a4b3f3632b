package hal

import (
	"fmt"
	"sort"
	"sync"
)

// Factory opens a new Device instance for its backend.
type Factory func() (Device, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first registered and openable
	// wins; the software backend is the always-available fallback).
	backendPriority = []string{"software"}
)

// Register registers a backend factory under the given name. It is typically
// called from init() functions in backend packages. Registering the same
// name twice replaces the earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Available returns the sorted names of all registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a device for the named backend.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("hal: backend %q is not registered (available: %v)", name, Available())
	}
	return factory()
}

// Default opens the best available backend by priority, falling back to any
// registered backend that opens successfully.
func Default() (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if dev, err := factory(); err == nil {
				return dev, nil
			}
		}
	}
	for _, factory := range backends {
		if dev, err := factory(); err == nil {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("hal: no backend available")
}

// File: internal/provider/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"terrable/internal/config"
	"terrable/pkg/storage"
)

// Reports whether the configuration holds everything a backend needs to start
type ConfigCheck func(cfg *config.Config) bool

// Builds a storage backend from the configuration
type Initializer func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error)

type Registration struct {
	ConfigCheck ConfigCheck
	Initializer Initializer
	// Explains what to set when ConfigCheck fails, e.g. "minio.endpoint"
	RequiredKeys []string
}

var (
	// Keyed by lowercase backend name
	backends   = make(map[string]Registration)
	backendsMu sync.RWMutex
)

// RegisterProvider is called from the init() of each backend package
func RegisterProvider(name string, registration Registration) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	normalizedName := strings.ToLower(name)
	if _, exists := backends[normalizedName]; exists {
		panic(fmt.Sprintf("storage backend %s already registered", normalizedName))
	}
	if registration.ConfigCheck == nil {
		panic(fmt.Sprintf("storage backend %s registration missing ConfigCheck", normalizedName))
	}
	if registration.Initializer == nil {
		panic(fmt.Sprintf("storage backend %s registration missing Initializer", normalizedName))
	}

	backends[normalizedName] = registration
}

// Returns the sorted names of all registered backends
func GetSupportedProviders() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetRegistration(providerName string) (Registration, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	registration, exists := backends[strings.ToLower(providerName)]
	return registration, exists
}
